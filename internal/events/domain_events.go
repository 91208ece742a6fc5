package events

import "fmt"

const (
	PartSortedEvent              = "part.sorted"
	PartRemovedEvent             = "part.removed"
	PartsCutEvent                = "parts.cut"
	ProductReadyForAssemblyEvent = "product.ready_for_assembly"
	ProductAssembledEvent        = "product.assembled"
	ProductShippedEvent          = "product.shipped"
	HardwareShippedEvent         = "hardware.shipped"
	BinClearedEvent              = "bin.cleared"
	RackOccupancyChangedEvent    = "rack.occupancy_changed"
)

type PartSorted struct {
	PartID      uint   `json:"part_id"`
	PartName    string `json:"part_name"`
	WorkOrderID uint   `json:"work_order_id"`
	RackID      uint   `json:"rack_id"`
	RackName    string `json:"rack_name"`
	BinLabel    string `json:"bin_label"`
	Station     string `json:"station"`
}

type PartRemoved struct {
	PartID      uint   `json:"part_id"`
	WorkOrderID uint   `json:"work_order_id"`
	BinLabel    string `json:"bin_label"`
	Station     string `json:"station"`
}

type PartsCut struct {
	NestSheetID uint   `json:"nest_sheet_id"`
	SheetName   string `json:"sheet_name"`
	WorkOrderID uint   `json:"work_order_id"`
	PartCount   int    `json:"part_count"`
	Station     string `json:"station"`
}

type ProductReadyForAssembly struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	WorkOrderID uint   `json:"work_order_id"`
}

type ProductAssembled struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	WorkOrderID uint   `json:"work_order_id"`
	Station     string `json:"station"`
}

type ProductShipped struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	WorkOrderID uint   `json:"work_order_id"`
	Station     string `json:"station"`
}

type HardwareShipped struct {
	HardwareIDs []uint `json:"hardware_ids"`
	Name        string `json:"name"`
	WorkOrderID uint   `json:"work_order_id"`
	Station     string `json:"station"`
}

type BinCleared struct {
	BinID        uint   `json:"bin_id"`
	BinLabel     string `json:"bin_label"`
	RackID       uint   `json:"rack_id"`
	PartsCleared int    `json:"parts_cleared"`
	Station      string `json:"station"`
}

type RackOccupancyChanged struct {
	RackID   uint   `json:"rack_id"`
	RackName string `json:"rack_name"`
	Occupied int    `json:"occupied"`
	Total    int    `json:"total"`
}

func NewPartSortedEvent(data PartSorted) Event {
	return NewEvent(PartSortedEvent, fmt.Sprintf("part:%d", data.PartID), data)
}

func NewPartRemovedEvent(data PartRemoved) Event {
	return NewEvent(PartRemovedEvent, fmt.Sprintf("part:%d", data.PartID), data)
}

func NewPartsCutEvent(data PartsCut) Event {
	return NewEvent(PartsCutEvent, fmt.Sprintf("nestsheet:%d", data.NestSheetID), data)
}

func NewProductReadyEvent(data ProductReadyForAssembly) Event {
	return NewEvent(ProductReadyForAssemblyEvent, fmt.Sprintf("product:%d", data.ProductID), data)
}

func NewProductAssembledEvent(data ProductAssembled) Event {
	return NewEvent(ProductAssembledEvent, fmt.Sprintf("product:%d", data.ProductID), data)
}

func NewProductShippedEvent(data ProductShipped) Event {
	return NewEvent(ProductShippedEvent, fmt.Sprintf("product:%d", data.ProductID), data)
}

func NewHardwareShippedEvent(data HardwareShipped) Event {
	return NewEvent(HardwareShippedEvent, fmt.Sprintf("hardware:%s", data.Name), data)
}

func NewBinClearedEvent(data BinCleared) Event {
	return NewEvent(BinClearedEvent, fmt.Sprintf("bin:%d", data.BinID), data)
}

func NewRackOccupancyChangedEvent(data RackOccupancyChanged) Event {
	return NewEvent(RackOccupancyChangedEvent, fmt.Sprintf("rack:%d", data.RackID), data)
}
