// cachebench compares the first page of a chat room served from the Redis
// message cache with the same page read from the database, and reports how
// long realtime events wait in the dispatcher queue while messages are sent.
//
//	ROOMS=50 MESSAGES=200 READS=2000 go run ./cmd/cachebench
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
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/cache"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
)

type result struct {
	name     string
	total    time.Duration
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	counters chatcache.Counters
}

type room struct {
	id     int64
	member model.ServiceID
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	client := must(cache.NewRedis(cfg.Redis))
	defer func() { _ = client.Close() }()

	roomCount := envInt("ROOMS", 50)
	perRoom := envInt("MESSAGES", 200)
	reads := envInt("READS", 2000)

	services := repository.NewServiceRepository(db)
	rooms := repository.NewChatRoomRepository(db)
	messages := repository.NewMessageRepository(db)
	msgCache := chatcache.NewRedisCache(client, cfg.Chat.CacheSize, cfg.Chat.CacheTTL)

	disp := realtime.NewDispatcher(realtime.NewRedisBroker(client), cfg.Chat.DispatcherQueue, cfg.Chat.PublishTimeout)
	stop := disp.Start(cfg.Chat.DispatcherWorkers)

	cached := service.NewChatService(db, rooms, messages, services, msgCache, disp)
	uncached := service.NewChatService(db, rooms, messages, services, nil, nil)

	run := uuid.NewString()[:8]
	seed := func(name string) model.ServiceID {
		s := &model.Service{Name: name, Sector: "IT"}
		u := &model.User{Email: fmt.Sprintf("%s-%s@bench.myfit.io", name, run), PasswordHash: "x"}
		if err := services.CreateUser(ctx, u, s); err != nil {
			panic(err)
		}
		return s.ID
	}

	fmt.Println("Setting up rooms...")
	all := make([]room, roomCount)
	for i := range all {
		a, b := seed(fmt.Sprintf("a%d", i)), seed(fmt.Sprintf("b%d", i))
		rc := must(cached.CheckOrCreateRoom(ctx, a, b))
		all[i] = room{id: rc.ChattingRoomID, member: a}
	}

	// publish landing latency, sampled while messages are sent
	landed := make([]time.Duration, 0, roomCount*perRoom)
	doneMetrics := make(chan struct{})
	var metricsWG sync.WaitGroup
	metricsWG.Add(1)
	go func() {
		defer metricsWG.Done()
		for {
			select {
			case d := <-disp.Metrics():
				landed = append(landed, d)
			case <-doneMetrics:
				return
			}
		}
	}()
	maxQ := 0
	quitSample := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := disp.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	fmt.Printf("Sending %d messages...\n", roomCount*perRoom)
	sendStart := time.Now()
	var sendWG sync.WaitGroup
	for _, r := range all {
		sendWG.Add(1)
		go func(r room) {
			defer sendWG.Done()
			for j := 0; j < perRoom; j++ {
				_, err := cached.SendMessage(ctx, service.SendMessageInput{
					RoomID: r.id, SenderID: r.member, Text: fmt.Sprintf("message %d", j), Type: model.MessageText,
				})
				if err != nil {
					panic(err)
				}
			}
		}(r)
	}
	sendWG.Wait()
	sendDur := time.Since(sendStart)
	close(quitSample)

	drainStart := time.Now()
	_ = stop(ctx)
	drainDur := time.Since(drainStart)
	close(doneMetrics)
	metricsWG.Wait()

	msgCache.ResetCounters()
	hot := readPages("cache (hot)", reads, all, cached, msgCache)

	msgCache.ResetCounters()
	store := readPages("store", reads, all, uncached, msgCache)

	for _, r := range all {
		_ = msgCache.Invalidate(ctx, r.id)
	}
	msgCache.ResetCounters()
	cold := readPages("cache (invalidated)", reads, all, cached, msgCache)

	fmt.Print("Rewarming cache...")
	for _, r := range all {
		page := must(uncached.GetMessages(ctx, r.id, r.member, nil))
		if err := msgCache.Warm(ctx, r.id, page.Messages); err != nil {
			panic(err)
		}
	}
	fmt.Println(" done")
	msgCache.ResetCounters()
	warm := readPages("cache (rewarmed)", reads, all, cached, msgCache)

	fmt.Println()
	fmt.Printf("Send total: %v, per message: %v\n", sendDur, sendDur/time.Duration(roomCount*perRoom))
	if len(landed) > 0 {
		fmt.Printf("Publish landing: samples=%d, p50=%v, p95=%v, p99=%v, maxQueue=%d, drain=%v\n",
			len(landed), pct(landed, 0.50), pct(landed, 0.95), pct(landed, 0.99), maxQ, drainDur)
	}
	fmt.Println()
	fmt.Printf("%-22s %12s %10s %10s %10s %8s %8s\n", "path", "total", "p50", "p95", "p99", "hits", "misses")
	for _, r := range []result{hot, store, cold, warm} {
		fmt.Printf("%-22s %12v %10v %10v %10v %8d %8d\n",
			r.name, r.total, r.p50, r.p95, r.p99, r.counters.Hits, r.counters.Misses)
	}
}

func readPages(name string, n int, rooms []room, svc service.ChatService, c *chatcache.RedisCache) result {
	ctx := context.Background()
	lat := make([]time.Duration, 0, n)
	start := time.Now()
	for i := 0; i < n; i++ {
		r := rooms[i%len(rooms)]
		st := time.Now()
		if _, err := svc.GetMessages(ctx, r.id, r.member, nil); err != nil {
			panic(err)
		}
		lat = append(lat, time.Since(st))
	}
	return result{
		name:     name,
		total:    time.Since(start),
		p50:      pct(lat, 0.50),
		p95:      pct(lat, 0.95),
		p99:      pct(lat, 0.99),
		counters: c.Counters(),
	}
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

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
