package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/satlayer/satlayer-restaking/logger"
)

type VaultStat struct {
	Address     string
	Denom       string
	TotalShares string
	TotalAssets string
}

type VaultSource interface {
	VaultStats() ([]VaultStat, error)
}

// VaultCollector reports vault totals at scrape time.
type VaultCollector struct {
	source      VaultSource
	logger      logger.Logger
	totalShares *prometheus.Desc
	totalAssets *prometheus.Desc
}

var _ prometheus.Collector = (*VaultCollector)(nil)

func NewVaultCollector(source VaultSource, logger logger.Logger) *VaultCollector {
	labels := []string{"vault", "denom"}
	return &VaultCollector{
		source: source,
		logger: logger,
		totalShares: prometheus.NewDesc(
			Namespace+"_vault_total_shares",
			"total shares issued by a vault",
			labels,
			prometheus.Labels{},
		),
		totalAssets: prometheus.NewDesc(
			Namespace+"_vault_total_assets",
			"assets held by a vault",
			labels,
			prometheus.Labels{},
		),
	}
}

func (c *VaultCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalShares
	ch <- c.totalAssets
}

func (c *VaultCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.source.VaultStats()
	if err != nil {
		c.logger.Error("failed to read vault stats", logger.WithField("err", err))
		return
	}
	for _, s := range stats {
		shares, _ := strconv.ParseFloat(s.TotalShares, 64)
		assets, _ := strconv.ParseFloat(s.TotalAssets, 64)
		ch <- prometheus.MustNewConstMetric(c.totalShares, prometheus.GaugeValue, shares, s.Address, s.Denom)
		ch <- prometheus.MustNewConstMetric(c.totalAssets, prometheus.GaugeValue, assets, s.Address, s.Denom)
	}
}
