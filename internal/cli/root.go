package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runUpload(args[1:])
	case "retry":
		return runRetry(args[1:])
	case "profiles":
		return runProfiles(args[1:])
	case "manage":
		return runManage(args[1:])
	case "status":
		return runStatus(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("wb-content-manager: vendor-code media uploader for marketplace product cards")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  wb-content-manager profiles add --name shop --api-key <key>")
	fmt.Println("  wb-content-manager run --urls <share-link>[,<share-link>...] --codes codes.txt")
	fmt.Println("  wb-content-manager status")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       match media files to vendor codes and upload them to product cards")
	fmt.Println("  retry     re-run with the failed codes from the latest run")
	fmt.Println("  profiles  list/add/remove/select API profiles, set keys")
	fmt.Println("  manage    interactive profile manager")
	fmt.Println("  status    show the latest run report")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Vendor codes come one per line via --codes <file> or - for stdin")
	fmt.Println("  - Use --local <dir> to upload from a local tree instead of share links")
	fmt.Println("  - Use --json on commands for machine-readable output")
}
