/*
Package workers sizes worker pools for containerized deployments.

runtime.NumCPU reports the host's CPUs; runtime.GOMAXPROCS(0) follows the
container CPU limit since Go 1.19. Pool sizes here are derived from the
latter:

	// Directory discovery is dominated by stat and readdir latency.
	n := workers.ForIO(cfg.IndexWorkers, 32)

Ingestion itself is serial; only the bulk importer's discovery walker runs a
pool.
*/
package workers
