package entity

import (
	"fmt"
	"strings"
)

// Lifecycle replaces the isActive/isDeleted flag pair. Only Active entities
// are ever handed to matching.
type Lifecycle int

const (
	LifecycleActive Lifecycle = iota
	LifecycleInactive
	LifecycleDeleted
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleActive:
		return "active"
	case LifecycleInactive:
		return "inactive"
	case LifecycleDeleted:
		return "deleted"
	}
	return fmt.Sprintf("lifecycle(%d)", int(l))
}

// ParseLifecycle maps the stored value. An empty value is Active, which is how
// records written before the column existed are interpreted.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return LifecycleActive, nil
	case "inactive":
		return LifecycleInactive, nil
	case "deleted":
		return LifecycleDeleted, nil
	}
	return LifecycleActive, fmt.Errorf("unknown lifecycle %q", s)
}

// LifecycleFromFlags converts the legacy isActive/isDeleted pair, where an
// unset flag means "not deleted" and "active".
func LifecycleFromFlags(isActive, isDeleted *bool) Lifecycle {
	if isDeleted != nil && *isDeleted {
		return LifecycleDeleted
	}
	if isActive != nil && !*isActive {
		return LifecycleInactive
	}
	return LifecycleActive
}
