package domain

import (
	"fmt"
	"strings"
)

// ItemState defines what a rule source does with the hostnames it lists.
//
// deny   - listed hostnames are added to the decision set
// allow  - listed hostnames are removed from the decision set
// ignore - the source is skipped entirely
type ItemState uint8

const (
	// ItemDeny adds every hostname of the source to the decision set.
	ItemDeny ItemState = iota
	// ItemAllow removes every hostname of the source from the decision set.
	ItemAllow
	// ItemIgnore disables the source without removing it from configuration.
	ItemIgnore
)

// String returns a stable string representation of the state.
func (s ItemState) String() string {
	switch s {
	case ItemDeny:
		return "deny"
	case ItemAllow:
		return "allow"
	case ItemIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("ItemState(%d)", s)
	}
}

// ParseItemState converts a string into an ItemState.
// Accepts: "deny", "allow", "ignore" (case-insensitive).
func ParseItemState(s string) (ItemState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deny":
		return ItemDeny, nil
	case "allow":
		return ItemAllow, nil
	case "ignore":
		return ItemIgnore, nil
	default:
		return 0, fmt.Errorf("unsupported ItemState: %q", s)
	}
}

// Item is one configured rule source.
//
// Notes:
//   - Location is opaque to the core: a file path, a URL, or a literal hostname.
//     Resolution is left to a SourceResolver.
//   - Items are processed in list order; a later item overrides an earlier one
//     for the same hostname.
type Item struct {
	Title    string    // human readable label, used in logs only
	Location string    // file path, URL, or single hostname
	State    ItemState // deny, allow or ignore
}

// NewItem constructs an Item and validates its fields.
func NewItem(title, location string, state ItemState) (Item, error) {
	it := Item{
		Title:    strings.TrimSpace(title),
		Location: strings.TrimSpace(location),
		State:    state,
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Validate checks the Item for required fields and supported values.
func (it Item) Validate() error {
	if it.Location == "" {
		return fmt.Errorf("item location must not be empty")
	}
	switch it.State {
	case ItemDeny, ItemAllow, ItemIgnore:
	default:
		return fmt.Errorf("unsupported ItemState: %d", it.State)
	}
	return nil
}

// Name returns the title if set, otherwise the location.
func (it Item) Name() string {
	if it.Title != "" {
		return it.Title
	}
	return it.Location
}
