// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Gentle Inbox — Seed Command
//
// Standalone CLI tool that creates an owner account and a business with a
// fresh feedback alias. Intended for seeding data on new deployments and
// local development.
//
// Usage:
//
//	go run ./cmd/seed/ --owner u1 --email owner@example.com --name "Corner Cafe" [--description "..."] [--domain gentleinbox.com]
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gentleinbox/ingestion/internal/config"
	"github.com/gentleinbox/ingestion/internal/models"
	"github.com/gentleinbox/ingestion/internal/store"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	ownerFlag := flag.String("owner", "", "Owner account id (required)")
	emailFlag := flag.String("email", "", "Owner email (required)")
	nameFlag := flag.String("name", "", "Business display name (required)")
	descFlag := flag.String("description", "", "Business description")
	domainFlag := flag.String("domain", "gentleinbox.com", "Inbound email domain for the printed alias")
	flag.Parse()

	if *ownerFlag == "" || *emailFlag == "" || *nameFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --owner, --email, and --name are required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise store", "error", err)
		os.Exit(1)
	}

	if err := st.CreateAccount(ctx, *ownerFlag, *emailFlag, ""); err != nil {
		slog.Error("failed to create account", "error", err)
		os.Exit(1)
	}

	publicID, err := newPublicID(12)
	if err != nil {
		slog.Error("failed to generate business id", "error", err)
		os.Exit(1)
	}

	business := models.Business{
		PublicID:    publicID,
		Owner:       *ownerFlag,
		Name:        *nameFlag,
		Description: *descFlag,
	}
	if err := st.CreateBusiness(ctx, business); err != nil {
		slog.Error("failed to create business", "error", err)
		os.Exit(1)
	}

	slog.Info("business created",
		"owner", *ownerFlag,
		"business", publicID,
		"name", *nameFlag,
	)
	fmt.Printf("feedback alias: feedback+%s@%s\n", publicID, *domainFlag)
}

// newPublicID generates a random lowercase alphanumeric id for the email alias.
func newPublicID(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", err
		}
		out[i] = idAlphabet[n.Int64()]
	}
	return string(out), nil
}
