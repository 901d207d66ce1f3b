package services

import (
	"strings"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

// AddressFields is one layer of shipping details considered during resolution.
// Layers are ordered by precedence: the checkout request first, then the
// default saved address, then the profile fallback.
type AddressFields struct {
	CustomerName       string
	CustomerPhone      string
	City               string
	Region             string
	AddressDescription string
	Address            string
}

// ResolvedAddress is the outcome of layering shipping details. Address is
// always non-empty on success.
type ResolvedAddress struct {
	CustomerName       string
	CustomerPhone      string
	City               string
	Region             string
	AddressDescription string
	Address            string
}

// AddressFieldsFromUser maps the profile-level fallback fields.
func AddressFieldsFromUser(user domain.User) AddressFields {
	return AddressFields{
		CustomerName:       user.Name,
		CustomerPhone:      user.Phone,
		City:               user.City,
		Region:             user.Region,
		AddressDescription: user.AddressDescription,
	}
}

// AddressFieldsFromAddress maps a saved address book entry.
func AddressFieldsFromAddress(addr domain.Address) AddressFields {
	return AddressFields{
		CustomerName:       addr.Name,
		CustomerPhone:      addr.Phone,
		City:               addr.City,
		Region:             addr.Region,
		AddressDescription: addr.AddressDescription,
		Address:            addr.Address,
	}
}

// ResolveShippingAddress merges the layers field by field, earlier layers
// winning, then ensures a composed address line. When no explicit address
// survives the merge, one is built from the resolved city, region, and
// description joined with " - ", skipping empties and collapsing adjacent
// duplicates. An empty final address yields ErrMissingAddress.
func ResolveShippingAddress(layers ...AddressFields) (ResolvedAddress, error) {
	var resolved ResolvedAddress
	for _, layer := range layers {
		resolved.CustomerName = firstNonEmpty(resolved.CustomerName, layer.CustomerName)
		resolved.CustomerPhone = firstNonEmpty(resolved.CustomerPhone, layer.CustomerPhone)
		resolved.City = firstNonEmpty(resolved.City, layer.City)
		resolved.Region = firstNonEmpty(resolved.Region, layer.Region)
		resolved.AddressDescription = firstNonEmpty(resolved.AddressDescription, layer.AddressDescription)
		resolved.Address = firstNonEmpty(resolved.Address, layer.Address)
	}

	if resolved.Address == "" {
		resolved.Address = composeAddress(resolved.City, resolved.Region, resolved.AddressDescription)
	}
	if resolved.Address == "" {
		return ResolvedAddress{}, ErrMissingAddress
	}
	return resolved, nil
}

func composeAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1] == part {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " - ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
