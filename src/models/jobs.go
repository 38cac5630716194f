package models

import (
	"encoding/json"
	"log"
	"time"

	"vrober/src/db"
	"vrober/src/lib"
	"vrober/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask is the durable record behind a scheduled job, so pending payment
// checks survive a restart and can be re-enqueued at boot.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name      string      `json:"-"`
	JobType   string      `json:"-"`
	RunsAt    time.Time   `json:"-"`
	PayloadID string      `json:"-"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"-"`
	Reference string      `json:"-"`
	Status    string      `gorm:"default:'pending'" json:"-"`
	Topic     string      `json:"-"`
}

func (self *JobTask) CreateAndEnqueueJobTask(jobTask JobTask) (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		pBytes, err := json.Marshal(jobTask.Payload)
		if err != nil {
			log.Printf("Failed to marshal payload: %s\n", err.Error())
			return err
		}
		sRunsAt := jobTask.RunsAt.Format("2006-01-02T15:04:05")
		sPayload := string(pBytes)
		sid, err := lib.CreateSchedule(jobTask.Name, jobTask.RunsAt, sRunsAt, jobTask.Topic, sPayload)
		if err != nil {
			log.Printf("Error creating job for order %s: %s\n", jobTask.Reference, err.Error())
			return err
		}
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		err = tx.Create(&jobTask).Error
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Created schedule for job %s with name %s at %s\n", jobID, jobTask.Name, jobTask.RunsAt.Format(time.RFC3339))
	return jobID, nil
}
