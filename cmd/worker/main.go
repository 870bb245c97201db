package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rgdevment/spamguard/internal/community"
	"github.com/rgdevment/spamguard/internal/config"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/logging"
	"github.com/rgdevment/spamguard/internal/platform/cache/redis"
	"github.com/rgdevment/spamguard/internal/platform/storage/scylla"
	"github.com/rgdevment/spamguard/internal/service"
)

const usage = "usage: worker -phone=+905012345678 [-verify=true|false]"

func main() {
	os.Exit(run())
}

func run() int {
	phoneFlag := flag.String("phone", "", "phone number to inspect (E.164)")
	verifyFlag := flag.String("verify", "", "set the moderation flag to true or false")
	flag.Parse()

	if *phoneFlag == "" {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.AggregateStore != "scylla" {
		log.Error().Str("aggregate_store", cfg.AggregateStore).Msg("moderation needs the shared scylla store")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := scylla.Connect(logging.Component(log, "scylla"), cfg.ScyllaKeyspace, cfg.ScyllaHostList()...)
	if err != nil {
		log.Error().Err(err).Msg("scylla connection failed")
		return 1
	}
	defer session.Close()

	var cache service.StatsCache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached stats may be stale until they expire")
		} else {
			defer client.Close()
			cache = redis.NewStatsCache(client, cfg.StatsCacheTTL, logging.Component(log, "cache"))
		}
	}

	aggregator := community.NewAggregator(scylla.NewAggregateRepository(session), logging.Component(log, "community"))
	svc := service.NewReportService(nil, aggregator, cache, nil, cfg.SaltSecret, logging.Component(log, "service"))

	var stats *domain.PhoneStats
	if *verifyFlag == "" {
		stats, err = svc.CheckRisk(ctx, *phoneFlag, "")
	} else {
		verified, perr := strconv.ParseBool(*verifyFlag)
		if perr != nil {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		stats, err = svc.SetVerified(ctx, *phoneFlag, verified)
	}
	if err != nil {
		log.Error().Err(err).Str("phone", *phoneFlag).Msg("moderation command failed")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to print stats")
		return 1
	}
	return 0
}
