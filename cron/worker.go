package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"locumly/config"
	snapshotRepo "locumly/database/repository/snapshot"
	"locumly/models"
	"locumly/services/markers"

	"github.com/hibiken/asynq"
)

const TypeMarkerSweep = "markers:sweep"

// MarkerSweepPayload identifies whose marker sets to re-prune.
type MarkerSweepPayload struct {
	UserID string `json:"userId"`
}

// SweepClient enqueues deferred marker sweeps. A sweep re-runs marker
// garbage collection from the durable snapshot, covering users whose
// inline prune failed mid-request.
type SweepClient struct {
	client *asynq.Client
}

func NewSweepClient() *SweepClient {
	return &SweepClient{
		client: asynq.NewClient(queueRedisOpts()),
	}
}

func (s *SweepClient) EnqueueMarkerSweep(userID string) error {
	payload, err := json.Marshal(MarkerSweepPayload{UserID: userID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeMarkerSweep, payload)
	_, err = s.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
	return err
}

func queueRedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitMarkerSweepWorker runs the async worker in background.
func InitMarkerSweepWorker(markerSvc markers.MarkerService, snaps snapshotRepo.SnapshotRepository) {
	srv := asynq.NewServer(
		queueRedisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMarkerSweep, handleMarkerSweep(markerSvc, snaps))

	go func() {
		log.Println("[MarkerSweep] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MarkerSweep] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MarkerSweep] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleMarkerSweep(markerSvc markers.MarkerService, snaps snapshotRepo.SnapshotRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p MarkerSweepPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[MarkerSweep] invalid payload: %v", err)
			return err
		}

		shiftIDs, slotIDs, err := snaps.Get(p.UserID)
		if err != nil {
			log.Printf("[MarkerSweep] snapshot load failed for %s: %v", p.UserID, err)
			return err
		}
		if shiftIDs == nil && slotIDs == nil {
			// No snapshot yet; nothing to prune against.
			return nil
		}

		liveShiftIDs := models.NewIDSet(shiftIDs...)
		liveSlotIDs := models.NewIDSet(slotIDs...)
		if _, err := markerSvc.Prune(ctx, p.UserID, liveShiftIDs, liveSlotIDs); err != nil {
			log.Printf("[MarkerSweep] prune failed for %s: %v", p.UserID, err)
			return err
		}
		return nil
	}
}
