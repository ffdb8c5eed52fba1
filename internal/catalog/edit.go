package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// ProductPatch carries the submitted product fields; nil means not submitted.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	CategoryID  *uint            `json:"category_id,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// Fields returns the names of the submitted fields.
func (p ProductPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, FieldName)
	}
	if p.CategoryID != nil {
		fields = append(fields, FieldCategory)
	}
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.Image != nil {
		fields = append(fields, FieldImage)
	}
	if p.Price != nil {
		fields = append(fields, FieldPrice)
	}
	if p.IsActive != nil {
		fields = append(fields, FieldIsActive)
	}
	return fields
}

// VersionPatch is one row of the versions formset. ID 0 adds a version;
// a non-zero ID updates or, with Delete set, removes an existing one.
type VersionPatch struct {
	ID            uint   `json:"id,omitempty"`
	Name          string `json:"name"`
	VersionNumber *int   `json:"version_number"`
	IsActual      *bool  `json:"is_actual,omitempty"`
	Delete        bool   `json:"delete,omitempty"`
}

// UpdateProductInput is one master-detail submission.
type UpdateProductInput struct {
	ProductID uint           `json:"-"`
	Product   ProductPatch   `json:"product"`
	Versions  []VersionPatch `json:"versions"`
}

type versionPlan struct {
	create []models.Version
	update []models.Version
	remove []uint
}

// UpdateProduct validates and stores a product together with its versions in
// one transaction. The product row stays locked from load to commit, so
// concurrent edits of the same product never interleave. On any error
// nothing is written.
func (s *Service) UpdateProduct(ctx context.Context, user *models.User, in UpdateProductInput) (*models.Product, error) {
	var updated *models.Product
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		p, err := tx.FindProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return classify("load product", err)
		}

		scope := ResolveEditRights(user, p)
		if scope == ScopeDenied {
			return ErrPermissionDenied
		}
		for _, f := range in.Product.Fields() {
			if !scope.Allows(f) {
				return invalid(f, "is not editable with %s rights", scope)
			}
		}

		if err := s.applyPatch(ctx, tx, p, in.Product); err != nil {
			return err
		}
		plan, err := planVersions(p, in.Versions)
		if err != nil {
			return err
		}

		p.UpdatedAt = s.now()
		if err := tx.SaveProduct(ctx, p); err != nil {
			return persistence("save product", err)
		}
		for _, id := range plan.remove {
			if err := tx.DeleteVersion(ctx, id); err != nil {
				return persistence("delete version", err)
			}
		}
		for i := range plan.update {
			if err := tx.SaveVersion(ctx, &plan.update[i]); err != nil {
				return persistence("save version", err)
			}
		}
		for i := range plan.create {
			if err := tx.CreateVersion(ctx, &plan.create[i]); err != nil {
				return persistence("create version", err)
			}
		}

		updated, err = tx.FindProduct(ctx, p.ID)
		return persistence("reload product", err)
	})
	if err != nil {
		err = classify("commit product edit", err)
		s.log.Debug().Err(err).Uint("product_id", in.ProductID).Msg("product edit rejected")
		return nil, err
	}
	s.log.Info().Uint("product_id", updated.ID).Uint("actor_id", user.ID).Int("versions", len(updated.Versions)).Msg("product updated")
	s.publish(ctx, TopicProductUpdated, updated, user)
	return updated, nil
}

func (s *Service) applyPatch(ctx context.Context, tx Repository, p *models.Product, patch ProductPatch) error {
	if patch.Name != nil {
		name, err := s.validateName(*patch.Name)
		if err != nil {
			return err
		}
		p.Name = name
	}
	if patch.Description != nil {
		desc, err := s.filter.Validate(FieldDescription, *patch.Description)
		if err != nil {
			return err
		}
		p.Description = desc
	}
	if patch.CategoryID != nil {
		if err := checkCategory(ctx, tx, *patch.CategoryID); err != nil {
			return err
		}
		if p.CategoryID != *patch.CategoryID {
			p.CategoryID = *patch.CategoryID
			p.Category = nil
		}
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return err
		}
		p.Price = *patch.Price
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	return nil
}

// planVersions validates the submitted rows against the product's current
// versions. Duplicate version numbers are accepted.
func planVersions(p *models.Product, rows []VersionPatch) (versionPlan, error) {
	var plan versionPlan
	existing := make(map[uint]models.Version, len(p.Versions))
	for _, v := range p.Versions {
		existing[v.ID] = v
	}
	seen := make(map[uint]bool)

	for i, row := range rows {
		field := fmt.Sprintf("versions[%d]", i)
		var cur models.Version
		if row.ID != 0 {
			v, ok := existing[row.ID]
			if !ok {
				return plan, invalid(field+".id", "version %d does not belong to product %d", row.ID, p.ID)
			}
			if seen[row.ID] {
				return plan, invalid(field+".id", "version %d is submitted more than once", row.ID)
			}
			seen[row.ID] = true
			cur = v
		}
		if row.Delete {
			if row.ID != 0 {
				plan.remove = append(plan.remove, row.ID)
			}
			continue
		}

		if row.VersionNumber == nil {
			return plan, invalid(field+".version_number", "is required")
		}
		if *row.VersionNumber < 0 {
			return plan, invalid(field+".version_number", "must not be negative")
		}
		name := strings.TrimSpace(row.Name)
		if utf8.RuneCountInString(name) > maxNameLen {
			return plan, invalid(field+".name", "must be at most %d characters", maxNameLen)
		}

		v := models.Version{
			ID:            row.ID,
			ProductID:     p.ID,
			Name:          name,
			VersionNumber: uint(*row.VersionNumber),
			IsActual:      true,
		}
		if row.ID != 0 {
			v.IsActual = cur.IsActual
		}
		if row.IsActual != nil {
			v.IsActual = *row.IsActual
		}
		if row.ID != 0 {
			plan.update = append(plan.update, v)
		} else {
			plan.create = append(plan.create, v)
		}
	}
	return plan, nil
}
