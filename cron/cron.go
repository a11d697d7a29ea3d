package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/redis"
)

const jobLockTTL = 10 * time.Minute

// StartCronJobs initializes and starts the in-process scheduler for the
// ledger batch jobs. The same jobs are also reachable via the /cron HTTP
// triggers; the redis lock keeps the two entry points from overlapping.
func StartCronJobs(svc *ledger.Service) {
	fmt.Println("Starting cron job scheduler...")
	c := cron.New()

	// Hourly sweep for packages whose expiry has passed.
	_, err := c.AddFunc("0 * * * *", func() { runExpiry(svc) })
	if err != nil {
		log.Fatalf("Failed to add expiry cron job: %v", err)
	}

	// Morning pass for the 7-day/3-day expiry warnings.
	_, err = c.AddFunc("0 9 * * *", func() { runWarnings(svc) })
	if err != nil {
		log.Fatalf("Failed to add warning cron job: %v", err)
	}

	// Nightly payout aggregation.
	_, err = c.AddFunc("30 0 * * *", func() { runPayouts(svc) })
	if err != nil {
		log.Fatalf("Failed to add payout cron job: %v", err)
	}

	c.Start()
	log.Println("Cron job scheduler started for ledger batch jobs")
}

func runExpiry(svc *ledger.Service) {
	ok, err := redis.AcquireJobLock("expire-credits", jobLockTTL)
	if err != nil || !ok {
		log.Printf("Skipping expiry run (lock held or unavailable): %v", err)
		return
	}
	defer redis.ReleaseJobLock("expire-credits")

	result, err := svc.ExpireDueCredits(time.Now())
	if err != nil {
		log.Printf("Expiry run failed: %v", err)
		return
	}
	log.Printf("Expiry run: %d packages expired, %d credits removed, %d failed",
		result.PackagesExpired, result.CreditsExpired, result.Failed)
}

func runWarnings(svc *ledger.Service) {
	created, err := svc.SendExpiryWarnings(time.Now())
	if err != nil {
		log.Printf("Expiry warning run failed: %v", err)
		return
	}
	log.Printf("Expiry warning run: %d notifications created", created)
}

func runPayouts(svc *ledger.Service) {
	ok, err := redis.AcquireJobLock("update-doctors-balance", jobLockTTL)
	if err != nil || !ok {
		log.Printf("Skipping payout run (lock held or unavailable): %v", err)
		return
	}
	defer redis.ReleaseJobLock("update-doctors-balance")

	result, err := svc.RunDoctorPayouts(time.Now())
	if err != nil {
		log.Printf("Payout run failed: %v", err)
		return
	}
	log.Printf("Payout run: %d doctors paid, total %d, %d failed",
		result.DoctorsPaid, result.TotalAmount, result.Failed)
}
