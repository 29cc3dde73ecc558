// Copyright 2025 Poiesic Systems
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


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/scicat"
	"github.com/poiesic/scicat/config"
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load(os.Getenv("SCICAT_CONFIG"))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	catalog, err := scicat.Open(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer catalog.Close()

	query := "numpy"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}
	results, err := catalog.Search(ctx, query, 5)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%s)[%d %s]\n", i, hit.Project.Name, hit.Project.URL, hit.Confidence, hit.Tier)
	}
}
