// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// Environment variables that enable the backend tests.
const (
	envTestDatabaseURL = "HEAPOVERFLOW_TEST_DATABASE_URL"
	envTestRedisURL    = "HEAPOVERFLOW_TEST_REDIS_URL"
)

const coverFile = "coverage.out"

// All runs every test. Backend tests skip themselves unless their
// environment variables are set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests with the backend environment cleared, so nothing
// reaches for Postgres or Redis.
func (Test) Unit() error {
	env := map[string]string{envTestDatabaseURL: "", envTestRedisURL: ""}
	return sh.RunWithV(env, binGo, "test", "./...")
}

// Backends runs the Postgres store and Redis pending-selection tests.
// Requires HEAPOVERFLOW_TEST_DATABASE_URL and HEAPOVERFLOW_TEST_REDIS_URL.
func (Test) Backends() error {
	var missing []error
	for _, key := range []string{envTestDatabaseURL, envTestRedisURL} {
		if os.Getenv(key) == "" {
			missing = append(missing, fmt.Errorf("%s is not set", key))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return err
	}
	return sh.RunV(binGo, "test", "-count=1", "./internal/postgres/...", "./internal/pending/...")
}

// Cover runs all tests with a coverage profile.
//
// Flags:
//
//	--out FILE   profile path (default coverage.out)
//	--html       open the HTML report afterwards
func (Test) Cover() error {
	fs := flag.NewFlagSet("test:cover", flag.ContinueOnError)
	out := fs.String("out", coverFile, "coverage profile path")
	html := fs.Bool("html", false, "open the HTML report")
	parseTargetFlags(fs)

	if err := sh.RunV(binGo, "test", "-coverprofile="+*out, "./..."); err != nil {
		return err
	}
	if *html {
		return sh.RunV(binGo, "tool", "cover", "-html="+*out)
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+*out)
}
