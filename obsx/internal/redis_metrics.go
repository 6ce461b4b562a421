package internal

import (
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisPoolInstruments = []poolInstrument[*redis.PoolStats]{
	{name: "redis_pool_total_conns", desc: "Number of connections in the pool", unit: "{connection}",
		i64: func(s *redis.PoolStats) int64 { return int64(s.TotalConns) }},
	{name: "redis_pool_idle_conns", desc: "Number of idle connections in the pool", unit: "{connection}",
		i64: func(s *redis.PoolStats) int64 { return int64(s.IdleConns) }},
	{name: "redis_pool_stale_conns", desc: "Number of stale connections removed from the pool", unit: "{connection}", counter: true,
		i64: func(s *redis.PoolStats) int64 { return int64(s.StaleConns) }},
	{name: "redis_pool_hits_total", desc: "Number of times a free connection was found in the pool", counter: true,
		i64: func(s *redis.PoolStats) int64 { return int64(s.Hits) }},
	{name: "redis_pool_misses_total", desc: "Number of times a free connection was not found in the pool", counter: true,
		i64: func(s *redis.PoolStats) int64 { return int64(s.Misses) }},
	{name: "redis_pool_timeouts_total", desc: "Number of times a wait for a connection timed out", counter: true,
		i64: func(s *redis.PoolStats) int64 { return int64(s.Timeouts) }},
}

// RegisterRedisPoolMetrics registers pool gauges for a go-redis client, labelled
// redis_name. A nil snapshot, as from a closed client, is skipped.
func RegisterRedisPoolMetrics(name string, stats func() *redis.PoolStats, meterProvider metric.MeterProvider) (metric.Registration, error) {
	return registerPool(meterProvider, "redis", attribute.String("redis_name", name), redisPoolInstruments,
		func() (*redis.PoolStats, bool) {
			s := stats()
			return s, s != nil
		})
}
