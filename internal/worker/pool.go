package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"liveclass-backend/internal/models"
	"liveclass-backend/internal/repository"
)

const attendanceQueue = "queue:attendance"

// Queue is the producer side: live-session joins enqueue attendance marks
// here instead of blocking the join on a database write.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) EnqueueAttendance(ctx context.Context, att models.Attendance) error {
	data, err := json.Marshal(att)
	if err != nil {
		return err
	}
	return q.redis.RPush(ctx, attendanceQueue, data).Err()
}

// Pool drains the attendance queue and upserts the marks. Jobs are guarded
// by a short redis lock so overlapping workers never double-process one
// mark.
type Pool struct {
	redis       *redis.Client
	sessions    *repository.SessionRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, sessions *repository.SessionRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		sessions:    sessions,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d attendance worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, attendanceQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var att models.Attendance
		if err := json.Unmarshal([]byte(result[1]), &att); err != nil {
			log.Printf("Worker %d: failed to parse attendance job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("attendance_lock:%s:%s:%s", att.CourseID, att.UserID, att.SessionID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this mark
		}

		if err := p.sessions.MarkAttendance(ctx, att); err != nil {
			log.Printf("Worker %d: failed to mark attendance for user %s: %v", id, att.UserID, err)
		}
	}
}
