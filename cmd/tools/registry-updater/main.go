// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"ev-finance-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "help", "-h", "--help":
		help()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(args []string) error {
	cmd := flag.NewFlagSet("add", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID (e.g., notify-decision)")
	displayName := cmd.String("displayName", "", "Display Name (e.g., Notify Decision)")
	description := cmd.String("description", "", "Description")
	category := cmd.String("category", "", "Category (applicant, evaluation, records, communication)")
	taskType := cmd.String("taskType", "", "Zeebe task type (e.g., notify-decision)")
	version := cmd.String("version", "1.0.0", "Version")
	status := cmd.String("status", "planned", "Implementation Status (planned, in-progress, completed, verified)")
	timeout := cmd.String("timeout", "10s", "Job timeout")
	errorCodes := cmd.String("errorCodes", "", "Comma separated BPMN error codes")
	cmd.Parse(args)

	if *id == "" || *displayName == "" || *description == "" || *category == "" || *taskType == "" {
		cmd.Usage()
		return errors.New("id, displayName, description, category, and taskType are required for add")
	}

	reg, err := loadOrNew(*path)
	if err != nil {
		return err
	}

	activity := registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		InputSchema:          map[string]interface{}{"type": "object"},
		OutputSchema:         map[string]interface{}{"type": "object"},
		ErrorCodes:           splitList(*errorCodes),
		Timeout:              *timeout,
		Workflows:            []string{},
		Tags:                 []string{*category},
	}
	if err := reg.Add(activity); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string) error {
	cmd := flag.NewFlagSet("update", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID to update")
	field := cmd.String("field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	value := cmd.String("value", "", "New value for the field")
	cmd.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		cmd.Usage()
		return errors.New("id, field, and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(*id, *field, *value); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s: %s = %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	cmd := flag.NewFlagSet("validate", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry is valid: %d activities\n", len(reg.Activities))
	return nil
}

func runList(args []string) error {
	cmd := flag.NewFlagSet("list", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, a := range reg.Activities {
		fmt.Printf("%-28s %-14s %-12s %s\n", a.TaskType, a.Category, a.ImplementationStatus, a.Version)
	}
	return nil
}

func loadOrNew(path string) (*registry.ActivityRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if errors.Is(err, os.ErrNotExist) {
		return registry.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Println(`registry-updater manages configs/activity-registry.json

Usage:
  registry-updater add      -id ID -displayName NAME -description DESC -category CAT -taskType TYPE [-version V] [-status S] [-timeout D] [-errorCodes A,B]
  registry-updater update   -id ID -field FIELD -value VALUE
  registry-updater validate [-path FILE]
  registry-updater list     [-path FILE]

Examples:
  registry-updater add -id notify-decision -displayName "Notify Decision" -description "SMS and email decision notice" -category communication -taskType notify-decision
  registry-updater update -id evaluate-creditworthiness -field status -value verified
  registry-updater validate -path configs/activity-registry.json`)
}
