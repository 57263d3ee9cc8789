package codecontext

import (
	"context"
	"strings"
	"testing"
)

const goSource = `package store

import (
	"context"
	sq "database/sql"
)

import "fmt"

const Version = "1"

var defaultTimeout = 5

type Store struct {
	db *sq.DB
}

type Repo interface {
	Get(ctx context.Context) error
}

type ID string

func Open(dsn string) (*Store, error) {
	return nil, fmt.Errorf("todo")
}

func (s *Store) Close() error {
	return nil
}

func helper() {}
`

func TestGoScanner(t *testing.T) {
	var fs FileSummary
	if err := NewGoScanner().Scan(context.Background(), []byte(goSource), &fs); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if got := strings.Join(fs.Imports, ","); got != "context,database/sql,fmt" {
		t.Errorf("imports = %q", got)
	}

	wantFuncs := []Symbol{{"Open", 24}, {"Close", 28}, {"helper", 32}}
	if len(fs.Functions) != len(wantFuncs) {
		t.Fatalf("functions = %+v, want %+v", fs.Functions, wantFuncs)
	}
	for i, w := range wantFuncs {
		if fs.Functions[i] != w {
			t.Errorf("functions[%d] = %+v, want %+v", i, fs.Functions[i], w)
		}
	}

	wantClasses := []Symbol{{"Store", 14}, {"Repo", 18}}
	if len(fs.Classes) != len(wantClasses) {
		t.Fatalf("classes = %+v, want %+v", fs.Classes, wantClasses)
	}
	for i, w := range wantClasses {
		if fs.Classes[i] != w {
			t.Errorf("classes[%d] = %+v, want %+v", i, fs.Classes[i], w)
		}
	}

	if got := strings.Join(fs.Exports, ","); got != "Version,Store,Repo,ID,Open" {
		t.Errorf("exports = %q", got)
	}
}

const pySource = `import os
import numpy as np
from flask import Flask

class Handler:
    def handle(self):
        pass

@app.route("/")
def index():
    return "ok"

def _private():
    pass
`

func TestPythonScanner(t *testing.T) {
	var fs FileSummary
	if err := NewPythonScanner().Scan(context.Background(), []byte(pySource), &fs); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if got := strings.Join(fs.Imports, ","); got != "os,numpy,flask" {
		t.Errorf("imports = %q", got)
	}
	if len(fs.Classes) != 1 || fs.Classes[0] != (Symbol{"Handler", 5}) {
		t.Errorf("classes = %+v", fs.Classes)
	}
	if len(fs.Functions) != 2 || fs.Functions[0] != (Symbol{"index", 10}) || fs.Functions[1].Name != "_private" {
		t.Errorf("functions = %+v", fs.Functions)
	}
	if got := strings.Join(fs.Exports, ","); got != "Handler,index" {
		t.Errorf("exports = %q", got)
	}
}

func TestLineScanner_Variants(t *testing.T) {
	src := strings.Join([]string{
		"import * as path from 'path';",
		"import fs from \"fs\";",
		"import './side-effect';",
		"  export let counter = 0;",
		"var legacy = true;",
		"function plain() {}",
		"class Plain {}",
		"export default function () {}",
	}, "\n")

	var fs FileSummary
	if err := (LineScanner{}).Scan(context.Background(), []byte(src), &fs); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := strings.Join(fs.Imports, ","); got != "path,fs" {
		t.Errorf("imports = %q", got)
	}
	if got := strings.Join(fs.Exports, ","); got != "counter,legacy,plain,Plain,default" {
		t.Errorf("exports = %q", got)
	}
	if len(fs.Functions) != 1 || fs.Functions[0].Line != 6 {
		t.Errorf("functions = %+v", fs.Functions)
	}
	if len(fs.Classes) != 1 || fs.Classes[0].Line != 7 {
		t.Errorf("classes = %+v", fs.Classes)
	}
}

func TestLanguageOf(t *testing.T) {
	tests := map[string]string{
		"main.go":    "go",
		"app.PY":     "python",
		"lib.rs":     "rust",
		"view.tsx":   "typescript",
		"index.mjs":  "javascript",
		"README.md":  "",
		"Makefile":   "",
		"styles.css": "",
	}
	for path, want := range tests {
		if got := LanguageOf(path); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDetectFrameworks(t *testing.T) {
	got := detectFrameworks([]string{"react-dom", "express", "react", "tokio::runtime", "github.com/xengine/core"})
	if strings.Join(got, ",") != "react,express,tokio" {
		t.Errorf("detectFrameworks() = %v", got)
	}
}
