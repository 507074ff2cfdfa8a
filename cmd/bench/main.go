package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/globalstate"
)

func main() {
	posts := flag.Int("posts", 1000, "Number of posts to generate")
	replies := flag.Int("replies", 5, "Replies per post")
	keep := flag.Bool("keep", false, "Keep the generated action log after running")
	flag.Parse()

	// 1. Setup
	benchDir, err := os.MkdirTemp("", "globalstate_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	fmt.Printf("Generating %d posts with %d replies each in %s...\n", *posts, *replies, benchDir)
	startGen := time.Now()

	// One file per post: the post, its replies and a vote on each reply.
	for i := 0; i < *posts; i++ {
		doc := fmt.Sprintf("- type: RECEIVE_CONTENT\n  payload: {content: {author: author%d, permlink: post-%d, category: bench, title: Post %d}}\n", i%50, i, i)
		for j := 0; j < *replies; j++ {
			doc += fmt.Sprintf("- type: RECEIVE_COMMENT\n  payload: {op: {author: reader%d, permlink: re-%d-%d, parent_author: author%d, parent_permlink: post-%d}}\n", j, i, j, i%50, i)
			doc += fmt.Sprintf("- type: VOTED\n  payload: {username: author%d, author: reader%d, permlink: re-%d-%d, weight: 10000}\n", i%50, j, i, j)
		}
		filename := filepath.Join(benchDir, fmt.Sprintf("post_%06d.yaml", i))
		if err := os.WriteFile(filename, []byte(doc), 0644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// 2. Replay from disk (parse + reduce)
	fmt.Println("Running Replay...")
	startReplay := time.Now()
	svc, err := globalstate.Replay(ctx, benchDir, globalstate.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	replayDuration := time.Since(startReplay)
	counts := svc.Store().Counts()

	// 3. Reduce only: fold the loaded actions in memory
	rt := globalstate.NewRuntime(benchDir, globalstate.WithLogger(logger))
	actions, err := rt.Source.Load(ctx)
	if err != nil {
		panic(err)
	}
	startReduce := time.Now()
	s := globalstate.Default()
	for _, a := range actions {
		s = globalstate.Reduce(s, a)
	}
	reduceDuration := time.Since(startReduce)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d actions, %d content nodes):\n", len(actions), counts.Content)
	fmt.Printf("  Replay: %v\n", replayDuration)
	fmt.Printf("  Reduce: %v\n", reduceDuration)
	fmt.Printf("  Equal:  %v\n", s.Equal(svc.Store()))
	fmt.Printf("--------------------------------------------------\n")
}
