// relbench measures interest and network request throughput against a single
// popular service, then the latency of the paged list queries over the result.
//
//	N=10000 CONC=8 PAGE=20 go run ./cmd/relbench
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/UMC-MyFit/my-fit-back-sub000/config"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()

	services := repository.NewServiceRepository(db)
	rel := service.NewRelationshipService(db, services,
		repository.NewInterestRepository(db),
		repository.NewNetworkRepository(db),
		repository.NewBlockRepository(db),
	)
	ctx := context.Background()

	n := envInt("N", 10000)
	conc := envInt("CONC", 1)
	pageSize := envInt("PAGE", 20)

	run := uuid.NewString()[:8]
	seed := func(name string) model.ServiceID {
		s := &model.Service{Name: name, Sector: "IT"}
		u := &model.User{Email: fmt.Sprintf("%s-%s@bench.myfit.io", name, run), PasswordHash: "x"}
		if err := services.CreateUser(ctx, u, s); err != nil {
			panic(err)
		}
		return s.ID
	}

	// star is the popular service every other one targets
	star := seed("star")
	fans := make([]model.ServiceID, n)
	for i := range fans {
		fans[i] = seed(fmt.Sprintf("fan%d", i))
	}

	interestDur, interestLat, interestErrs := measure(n, conc, func(i int) error {
		return rel.AddInterest(ctx, fans[i], star)
	})
	networkDur, networkLat, networkErrs := measure(n, conc, func(i int) error {
		_, err := rel.SendNetworkRequest(ctx, fans[i], star)
		return err
	})

	q0 := time.Now()
	recv := must(rel.ListReceivedInterests(ctx, star, service.Page{Limit: pageSize}))
	recvDur := time.Since(q0)

	q1 := time.Now()
	reqs := must(rel.ListReceivedRequests(ctx, star, service.Page{Limit: pageSize}))
	reqDur := time.Since(q1)

	q2 := time.Now()
	count := must(rel.CountReceivedInterests(ctx, star))
	countDur := time.Since(q2)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", n, conc, pageSize)
	fmt.Printf("AddInterest total: %v, per op: %v, p50: %v, p95: %v, p99: %v, errors: %d\n",
		interestDur, interestDur/time.Duration(n), pct(interestLat, 0.50), pct(interestLat, 0.95), pct(interestLat, 0.99), interestErrs)
	fmt.Printf("SendNetworkRequest total: %v, per op: %v, p50: %v, p95: %v, p99: %v, errors: %d\n",
		networkDur, networkDur/time.Duration(n), pct(networkLat, 0.50), pct(networkLat, 0.95), pct(networkLat, 0.99), networkErrs)
	fmt.Printf("Query received interests(%d) latency: %v, got %d\n", pageSize, recvDur, len(recv.Items))
	fmt.Printf("Query received requests(%d) latency: %v, got %d\n", pageSize, reqDur, len(reqs.Items))
	fmt.Printf("Count received interests latency: %v, count %d\n", countDur, count)
}

// measure runs op(0..n-1) on conc workers and returns wall time, per-op latencies and the error count.
func measure(n, conc int, op func(i int) error) (time.Duration, []time.Duration, int) {
	if conc > n {
		conc = n
	}
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu   sync.Mutex
		lat  = make([]time.Duration, 0, n)
		errs int
		wg   sync.WaitGroup
	)
	start := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				err := op(i)
				d := time.Since(st)
				mu.Lock()
				lat = append(lat, d)
				if err != nil {
					errs++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return time.Since(start), lat, errs
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
