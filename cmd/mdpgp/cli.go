package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "keygen":
		return runKeygen(args[2:])
	case "register":
		return runRegister(args[2:])
	case "create":
		return runCreate(args[2:])
	case "share":
		return runShare(args[2:])
	case "list":
		return runList(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "mdpgp"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s keygen --name <name> --email <email> --out <secret.asc>\n", name)
	fmt.Fprintf(os.Stderr, "  %s register --key <secret.asc> (--server <url>|--out <file>)\n", name)
	fmt.Fprintf(os.Stderr, "  %s create --server <url> --identity <hex> --name <doc name>\n", name)
	fmt.Fprintf(os.Stderr, "  %s share --server <url> --identity <hex> --doc <doc_id> --grantee <hex>\n", name)
	fmt.Fprintf(os.Stderr, "  %s list --server <url> --identity <hex> [--shared]\n", name)
}
