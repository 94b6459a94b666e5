package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runCreate(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var server string
	var identity string
	var name string
	fs.StringVar(&server, "server", "", "server base URL")
	fs.StringVar(&identity, "identity", "", "caller identity (hex key id)")
	fs.StringVar(&name, "name", "", "document name")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if server == "" || identity == "" || name == "" {
		fmt.Fprintln(os.Stderr, "create: --server, --identity and --name are required")
		return 1
	}

	payload, _ := json.Marshal(map[string]string{"name": name})
	body, err := postRaw(server+"/v1/documents", "application/json", bytes.NewReader(payload), identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		return 1
	}
	fmt.Printf("%s\n", body)
	return 0
}

func runShare(args []string) int {
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var server string
	var identity string
	var docID string
	var grantee string
	fs.StringVar(&server, "server", "", "server base URL")
	fs.StringVar(&identity, "identity", "", "caller identity (hex key id)")
	fs.StringVar(&docID, "doc", "", "document id")
	fs.StringVar(&grantee, "grantee", "", "grantee identity (hex key id)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if server == "" || identity == "" || docID == "" || grantee == "" {
		fmt.Fprintln(os.Stderr, "share: --server, --identity, --doc and --grantee are required")
		return 1
	}

	payload, _ := json.Marshal(map[string]string{"grantee": grantee})
	body, err := postRaw(server+"/v1/documents/"+docID+"/share", "application/json", bytes.NewReader(payload), identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "share: %v\n", err)
		return 1
	}
	fmt.Printf("%s\n", body)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var server string
	var identity string
	var shared bool
	fs.StringVar(&server, "server", "", "server base URL")
	fs.StringVar(&identity, "identity", "", "caller identity (hex key id)")
	fs.BoolVar(&shared, "shared", false, "list documents shared with me instead of owned")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if server == "" || identity == "" {
		fmt.Fprintln(os.Stderr, "list: --server and --identity are required")
		return 1
	}

	url := server + "/v1/documents"
	if shared {
		url += "/shared"
	}
	body, err := getRaw(url, identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		return 1
	}
	fmt.Printf("%s\n", body)
	return 0
}
