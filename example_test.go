package rngsync_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aretw0/rngsync"
	"github.com/aretw0/rngsync/pkg/adapters/file"
	"github.com/aretw0/rngsync/pkg/domain"
)

// ExampleNew shows the usual wiring: a file-backed history, one listener and a
// submission whose result arrives through the push channel.
func ExampleNew() {
	client, err := rngsync.New(
		rngsync.WithNode("http://localhost:8080/rng:rng:template.os"),
		rngsync.WithIdentity(domain.Identity{NodeID: "our.os", ProcessID: "rng:rng:template.os"}),
		rngsync.WithStateStore(file.New("")),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	client.Subscribe(func(s domain.HistoryState) {
		if len(s.Entries) > 0 {
			fmt.Println("latest:", s.Entries[0].Value)
		}
	})

	ctx := context.Background()
	if err := client.Start(ctx); err != nil && !errors.Is(err, domain.ErrSnapshotUnavailable) {
		log.Fatal(err)
	}

	if err := client.Submit(ctx, domain.RequestSpec{
		TargetPeer: "their.os",
		Range:      domain.Range{Min: 1, Max: 6},
	}); err != nil {
		log.Println(err)
	}
}
