package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name, e.g. add_rooms_active_game")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	if *name == "" {
		log.Fatal("usage: migrate-create -name <snake_case_name>")
	}
	if !namePattern.MatchString(*name) {
		log.Fatalf("invalid migration name %q: use lower-case letters, digits, and underscores", *name)
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	if err := writeStub(upPath, *name, "up"); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeStub(downPath, *name, "down"); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

func writeStub(path, name, direction string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	content := fmt.Sprintf("-- concentration: %s (%s)\n", name, direction)
	return os.WriteFile(path, []byte(content), 0o644)
}
