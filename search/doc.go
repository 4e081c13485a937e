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


// Package search ranks stored entries against a query with the fuzzy matcher.
//
// A Searcher loads every entry of a repository, splits the entries into
// shards and scores the shards concurrently on a worker pool. Each shard is
// scored by its own fuzzy.Matcher; the shard results are merged by cost and
// then by entry position, so the ranking does not depend on scheduling.
//
// Search keeps results whose cost does not exceed the configured threshold
// (the allowed mistake distance), Rank returns every entry with its cost.
//
//	searcher, err := search.NewSearcher(repo, search.WithConfig(search.NewConfig(
//	    search.WithThreshold(200),
//	)))
//	if err != nil {
//	    return err
//	}
//	defer searcher.Release()
//
//	results, err := searcher.Search(ctx, "Водкин")
package search
