package utils

import (
	"fmt"
	"os/user"
	"strconv"
)

// LookupGroup resolves a group given by name or by numeric gid from the
// system group database.
func LookupGroup(nameOrID string) (*user.Group, error) {
	if _, err := strconv.ParseUint(nameOrID, 10, 32); err == nil {
		group, err := user.LookupGroupId(nameOrID)
		if err != nil {
			return nil, fmt.Errorf("error lookup group id: %w", err)
		}

		return group, nil
	}

	group, err := user.LookupGroup(nameOrID)
	if err != nil {
		return nil, fmt.Errorf("error lookup group: %w", err)
	}

	return group, nil
}
