// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/feedcore/internal/content"
)

// ValidateItem checks a fetched content item. A fetch callback must never
// hand back partial content, so anything failing here is a fetch failure.
func ValidateItem(item *content.Item) error {
	if item == nil {
		return fmt.Errorf("content item is nil")
	}
	if err := ValidateStruct(item); err != nil {
		return fmt.Errorf("invalid content item %q: %w", item.ID, err)
	}
	return nil
}

// ValidateInteraction checks a recorded viewer action.
func ValidateInteraction(in *content.Interaction) error {
	if err := ValidateStruct(in); err != nil {
		return fmt.Errorf("invalid interaction on %q: %w", in.ContentID, err)
	}
	return nil
}

func itemStructLevel(sl validator.StructLevel) {
	item, ok := sl.Current().Interface().(content.Item)
	if !ok {
		return
	}
	if err := item.Validate(); err != nil {
		sl.ReportError(item.Kind, "Kind", "Kind", "payload", "")
	}
}

func interactionStructLevel(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(content.Interaction)
	if !ok {
		return
	}
	if !in.Action.Valid() {
		sl.ReportError(in.Action, "Action", "Action", "oneof", "like unlike comment share view skip save follow unfollow")
	}
}
