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


// Package search resolves free-text queries to cataloged projects.
//
// The Searcher tries a fixed sequence of match tiers:
//   - Exact package name
//   - Exact project name, then exact repository name
//   - Name prefix, repository name prefix and name substring
//
// Each tier assigns a base confidence that is lowered for forks and for
// projects with a low science score. Results are ranked by confidence and
// then by project quality.
package search
