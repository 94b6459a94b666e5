package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/openpgp/armor"

	"github.com/n-arms/md-pgp-server/pkg/enroll"
)

func runKeygen(args []string) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var name string
	var email string
	var outPath string
	fs.StringVar(&name, "name", "", "key holder name")
	fs.StringVar(&email, "email", "", "key holder email")
	fs.StringVar(&outPath, "out", "", "output path for the armored secret key")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if name == "" || email == "" || outPath == "" {
		fmt.Fprintln(os.Stderr, "keygen: --name, --email and --out are required")
		return 1
	}

	entity, err := enroll.NewKey(name, "", email, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}
	defer out.Close()

	w, err := armor.Encode(out, "PGP PRIVATE KEY BLOCK", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		return 1
	}

	fmt.Printf("wrote %s\nidentity: %016x\n", outPath, entity.PrimaryKey.KeyId)
	return 0
}
