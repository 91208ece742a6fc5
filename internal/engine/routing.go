package engine

import (
	"fmt"

	"github.com/millbrook-cnc/shopflow/internal/models"
	"gorm.io/gorm"
)

// DefaultRackType applies when no active routing rule matches a part
const DefaultRackType = models.RackTypeStandard

// Classify resolves the rack type for a part name: active rules are
// evaluated in ascending priority order and the first keyword match
// wins. Rules with no keywords never match; inactive rules are
// invisible regardless of priority.
func Classify(db *gorm.DB, partName string) (models.RackType, error) {
	var rules []models.RoutingRule
	if err := db.Where("active = ?", true).Order("priority ASC").Find(&rules).Error; err != nil {
		return "", fmt.Errorf("failed to load routing rules: %w", err)
	}

	for _, rule := range rules {
		if rule.Matches(partName) {
			return rule.RackType, nil
		}
	}
	return DefaultRackType, nil
}

// CreateRule inserts a routing rule, rejecting priority or keyword
// collisions among active rules
func (e *Engine) CreateRule(rule *models.RoutingRule) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := validateRule(tx, rule, 0); err != nil {
			return err
		}
		return tx.Create(rule).Error
	})
}

// UpdateRule saves changes to an existing rule under the same
// uniqueness checks as creation
func (e *Engine) UpdateRule(rule *models.RoutingRule) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var existing models.RoutingRule
		if err := tx.First(&existing, rule.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errf(KindNotFound, "routing rule %d not found", rule.ID)
			}
			return err
		}
		if err := validateRule(tx, rule, rule.ID); err != nil {
			return err
		}
		return tx.Save(rule).Error
	})
}

// validateRule enforces priority and keyword uniqueness among active
// rules. Inactive rules may overlap freely; they only need to be
// consistent at the moment they are re-enabled.
func validateRule(tx *gorm.DB, rule *models.RoutingRule, excludeID uint) error {
	if !rule.Active {
		return nil
	}

	var clash int64
	q := tx.Model(&models.RoutingRule{}).
		Where("active = ? AND priority = ?", true, rule.Priority)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&clash).Error; err != nil {
		return err
	}
	if clash > 0 {
		return errf(KindDuplicatePriority, "priority %d is already used by an active rule", rule.Priority)
	}

	seen := make(map[string]bool)
	for _, kw := range rule.KeywordList() {
		if seen[kw] {
			return errf(KindDuplicateKeyword, "keyword %q appears twice in rule", kw)
		}
		seen[kw] = true
	}
	return nil
}
