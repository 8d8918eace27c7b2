package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	src := "# listbench\n" +
		"pushers 8\n" +
		"Items 1000\n" +
		"pops -3\n" +
		"dbfilename survivors.rdb\n" +
		"verbose yes\n"
	p := parse(strings.NewReader(src))

	if p.Pushers != 8 || p.Items != 1000 {
		t.Errorf("int fields not parsed: %+v", p)
	}
	if p.Pops != 1 {
		t.Errorf("negative pops should keep the default, got %d", p.Pops)
	}
	if p.Poppers != 50 || p.Timeout != 30 {
		t.Errorf("missing keys should keep defaults: %+v", p)
	}
	if p.RDBFilename != "survivors.rdb" {
		t.Errorf("expected survivors.rdb, got %s", p.RDBFilename)
	}
	if !p.Verbose {
		t.Error("verbose yes not parsed")
	}
}

func TestSetupConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "listbench.conf")
	if err := os.WriteFile(name, []byte("checkers 2\ntimeout 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := Properties
	defer func() { Properties = old }()

	SetupConfig(name)
	if Properties.Checkers != 2 || Properties.Timeout != 5 {
		t.Errorf("file not loaded: %+v", Properties)
	}
}
