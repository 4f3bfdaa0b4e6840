// Copyright 2022 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics registers the prometheus instruments a staging store
// exposes: storage rebate and gas accounting histograms, and counters for
// the two failure modes operators care about, ownership authentication
// rejections and conservation mismatches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	storageRebateCollected = newHist("storage_rebate_collected_bytes_price", "Storage rebate collected per transaction, in price-weighted bytes")
	storageCostCharged     = newHist("storage_cost_charged_bytes_price", "New storage cost charged per transaction, in price-weighted bytes")

	objectsWrittenPerTxn = newHist("objects_written_per_txn", "How many objects were written by a single staged transaction")
	objectsDeletedPerTxn = newHist("objects_deleted_per_txn", "How many objects were deleted by a single staged transaction")

	conservationChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conservation_checks_total",
		Help: "Count of SUI conservation checks, partitioned by outcome",
	}, []string{"outcome"})

	ownershipFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ownership_authentication_failures_total",
		Help: "Count of transactions rejected during ownership-chain authentication",
	})

	childObjectResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "child_object_resolutions_total",
		Help: "Count of dynamic child object lookups, partitioned by source",
	}, []string{"source"})
)

// Register attaches every instrument in this package to reg. Call once
// per process; a second registration against the same registerer returns
// prometheus.AlreadyRegisteredError for each instrument.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		storageRebateCollected,
		storageCostCharged,
		objectsWrittenPerTxn,
		objectsDeletedPerTxn,
		conservationChecks,
		ownershipFailures,
		childObjectResolutions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func newHist(name, desc string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    desc,
		Buckets: prometheus.ExponentialBuckets(1, 2, 20),
	})
}

// ObserveStorageRebate records the price-weighted rebate a single
// transaction collected.
func ObserveStorageRebate(rebate uint64) {
	storageRebateCollected.Observe(float64(rebate))
}

// ObserveStorageCost records the price-weighted storage cost a single
// transaction charged.
func ObserveStorageCost(cost uint64) {
	storageCostCharged.Observe(float64(cost))
}

// ObserveObjectCounts records how many objects a transaction wrote and
// deleted.
func ObserveObjectCounts(written, deleted int) {
	objectsWrittenPerTxn.Observe(float64(written))
	objectsDeletedPerTxn.Observe(float64(deleted))
}

// IncConservationCheck increments the conservation-check counter for the
// given outcome, "ok" or "mismatch".
func IncConservationCheck(outcome string) {
	conservationChecks.WithLabelValues(outcome).Inc()
}

// IncOwnershipFailure increments the ownership-authentication failure
// counter.
func IncOwnershipFailure() {
	ownershipFailures.Inc()
}

// IncChildObjectResolution increments the child-object resolution
// counter for the given source, "write-set" or "backing-store".
func IncChildObjectResolution(source string) {
	childObjectResolutions.WithLabelValues(source).Inc()
}
