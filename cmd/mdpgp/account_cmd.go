package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/n-arms/md-pgp-server/pkg/enroll"
)

func runRegister(args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var keyPath string
	var server string
	var outPath string
	fs.StringVar(&keyPath, "key", "", "path to the armored secret key")
	fs.StringVar(&server, "server", "", "server base URL")
	fs.StringVar(&outPath, "out", "", "write the registration message to a file instead of submitting")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if keyPath == "" || (server == "" && outPath == "") {
		fmt.Fprintln(os.Stderr, "register: --key and one of --server or --out are required")
		return 1
	}

	f, err := os.Open(keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register: %v\n", err)
		return 1
	}
	defer f.Close()

	entity, err := enroll.ReadSecretKey(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register: %v\n", err)
		return 1
	}
	message, err := enroll.RegistrationMessage(entity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register: build message: %v\n", err)
		return 1
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, message, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "register: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %s\n", outPath)
		return 0
	}

	body, err := postRaw(server+"/v1/accounts", "application/octet-stream", bytes.NewReader(message), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "register: %v\n", err)
		return 1
	}
	fmt.Printf("%s\n", body)
	return 0
}
