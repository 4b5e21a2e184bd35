package cli

import (
	"flag"
	"fmt"
	"strings"
)

func runProfiles(args []string) error {
	if len(args) == 0 {
		return listProfiles(nil)
	}
	switch args[0] {
	case "list":
		return listProfiles(args[1:])
	case "add":
		return addProfile(args[1:])
	case "remove":
		return removeProfile(args[1:])
	case "select":
		return selectProfile(args[1:])
	case "set-key":
		return setProfileKey(args[1:])
	default:
		return fmt.Errorf("unknown profiles subcommand %q (list|add|remove|select|set-key)", args[0])
	}
}

type profileListItem struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	HasKey   bool   `json:"has_key"`
}

func listProfiles(args []string) error {
	fs := flag.NewFlagSet("profiles list", flag.ContinueOnError)
	config := fs.String("config", "", "profile store path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	if *jsonOut {
		items := make([]profileListItem, 0, len(store.Profiles))
		for i, p := range store.Profiles {
			items = append(items, profileListItem{Name: p.Name, Selected: i == store.Selected, HasKey: p.APIKey != ""})
		}
		return printJSON(items)
	}
	for i, p := range store.Profiles {
		marker := " "
		if i == store.Selected {
			marker = "*"
		}
		key := "no key"
		if p.APIKey != "" {
			key = "key set"
		}
		fmt.Printf("%s %s (%s)\n", marker, p.Name, key)
	}
	return nil
}

func addProfile(args []string) error {
	fs := flag.NewFlagSet("profiles add", flag.ContinueOnError)
	name := fs.String("name", "", "profile name")
	apiKey := fs.String("api-key", "", "marketplace API key")
	config := fs.String("config", "", "profile store path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	profileName := strings.TrimSpace(*name)
	if profileName == "" {
		var err error
		profileName, err = promptRequired("profile name")
		if err != nil {
			return err
		}
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	if err := store.Add(profileName); err != nil {
		return err
	}
	if key := strings.TrimSpace(*apiKey); key != "" {
		if err := store.SetAPIKey(profileName, key); err != nil {
			return err
		}
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("added profile %q (selected)\n", profileName)
	return nil
}

func removeProfile(args []string) error {
	fs := flag.NewFlagSet("profiles remove", flag.ContinueOnError)
	name := fs.String("name", "", "profile name")
	config := fs.String("config", "", "profile store path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	profileName := strings.TrimSpace(*name)
	if profileName == "" {
		return fmt.Errorf("--name is required")
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	if err := store.Remove(profileName); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("removed profile %q\n", profileName)
	return nil
}

func selectProfile(args []string) error {
	fs := flag.NewFlagSet("profiles select", flag.ContinueOnError)
	name := fs.String("name", "", "profile name")
	config := fs.String("config", "", "profile store path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	profileName := strings.TrimSpace(*name)
	if profileName == "" {
		return fmt.Errorf("--name is required")
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	if err := store.Select(profileName); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("selected profile %q\n", profileName)
	return nil
}

func setProfileKey(args []string) error {
	fs := flag.NewFlagSet("profiles set-key", flag.ContinueOnError)
	name := fs.String("name", "", "profile name (default: selected profile)")
	apiKey := fs.String("api-key", "", "marketplace API key")
	config := fs.String("config", "", "profile store path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := loadProfileStore(strings.TrimSpace(*config))
	if err != nil {
		return err
	}
	profileName := firstNonEmpty(strings.TrimSpace(*name), store.Current().Name)
	if profileName == "" {
		return fmt.Errorf("--name is required")
	}
	key := strings.TrimSpace(*apiKey)
	if key == "" {
		var err error
		key, err = promptRequired("API key")
		if err != nil {
			return err
		}
	}

	if err := store.SetAPIKey(profileName, key); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("updated API key for profile %q\n", profileName)
	return nil
}
