// Package crawl visits every repository of a cleaned project table and
// records how much automated testing it carries.
//
// Two crawler variants share the same resumable result table:
//
//   - [LocalCrawler] clones each repository, counts test files in the
//     working tree, and reads the HEAD commit with git
//   - [APICrawler] measures repositories through the GitHub API without
//     cloning, spending search quota instead of disk and bandwidth
//
// Both checkpoint the result table to disk after every processed row, so an
// interrupted run resumes exactly where it stopped. A row is skipped on
// resume only when all of its measurements are present; partially processed
// rows redo just the missing steps.
package crawl
