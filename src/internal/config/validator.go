package config

import (
	"fmt"
	"strings"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "general",
			Message:   "configuration must contain 'general' section",
		})
		return validationErrors
	}

	if err := validate.Struct(c.General); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "general", "")...)
	}

	if err := ValidateDNSServers(c.DNSServers); err != nil {
		validationErrors = append(validationErrors, err.(ValidationErrors)...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// ValidateDNSServers validates a DNS server list on its own, as submitted by the browser shell.
// Names must be present and unique; hosts must be IPv4 or empty.
func ValidateDNSServers(entries []*DNSServerEntry) error {
	var validationErrors ValidationErrors

	seenNames := make(map[string]bool)

	for i, entry := range entries {
		prefix := fmt.Sprintf("dns_server.%d", i)
		if entry == nil {
			validationErrors = append(validationErrors, ValidationError{
				FieldPath: prefix,
				Message:   "entry must not be null",
			})
			continue
		}

		itemName := entry.Name
		if itemName == "" {
			itemName = fmt.Sprintf("dns_server[%d]", i)
		}

		if err := validate.Struct(entry); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, prefix, itemName)...)
		}

		key := strings.TrimSpace(entry.Name)
		if key == "" {
			continue
		}
		if seenNames[key] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: prefix + ".name",
				Message:   fmt.Sprintf("duplicate DNS server name: %s", entry.Name),
			})
		}
		seenNames[key] = true
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}
