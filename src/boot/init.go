package boot

import (
	"log"
	"os"
	"path"
	"time"

	"vrober/src/common"
	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	awslib "vrober/src/lib/aws"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Vendor{},
		&models.Admin{},
		&models.Category{},
		&models.Service{},
		&models.Booking{},
		&models.Payment{},
		&models.WebhookEvent{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go RecoverQueuedJobs()
	go UpdateExpiredJobs()
	if config.API_ENV != string(types.Production) {
		go lib.KafkaCreateTopics(
			utils.WithSuffix("BookingEvents"),
			utils.WithSuffix("PaymentChecks"),
			utils.WithSuffix("Emails"),
		)
	}
	go common.BookingEventsConsumer()
	go common.PaymentChecksConsumer()
	go common.EmailsConsumer()
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	// Safety net for orders whose scheduled check got lost.
	if _, err := lib.CreateCronJob(common.ExpireStalePayments, 10*time.Minute); err != nil {
		log.Printf("Error scheduling payment sweep: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// RecoverQueuedJobs re-enqueues pending payment checks that were scheduled
// before the last restart. Only the local scheduler loses its jobs; in
// production EventBridge holds them.
func RecoverQueuedJobs() error {
	if config.API_ENV == string(types.Production) {
		return nil
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in1m := today.Add(1 * time.Minute)
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err := ss.
		Model(&models.JobTask{}).
		Where("status = ?", "pending").
		Where("runs_at BETWEEN ? AND ?", in1m, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		log.Printf("Queueing: %s\n", jobTask.ID.String())
		pBytes, err := jobTask.Payload.Value()
		if err != nil {
			log.Printf("Failed to read payload for job [%s]. Skipping\n", jobTask.ID.String())
			continue
		}
		sRunsAt := jobTask.RunsAt.Format("2006-01-02T15:04:05")
		if _, err := lib.CreateSchedule(jobTask.Name, jobTask.RunsAt, sRunsAt, jobTask.Topic, pBytes.(string)); err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
	}
	return nil
}

func UpdateExpiredJobs() {
	db := db.GetDb()
	err := db.
		Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.JobTask{}).
				Where("status = ?", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").
				Error
		})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}

// DownloadSDKFileFromS3 fetches the firebase credentials file on production
// hosts. Local machines keep the file on disk.
func DownloadSDKFileFromS3() {
	if config.API_ENV != string(types.Production) {
		return
	}
	filename := "admin-sdk-credentials.json"
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/secrets"
	}
	sdkFilePath := path.Join(secretsDir, filename)
	if _, err := os.Stat(sdkFilePath); err == nil {
		log.Println("File exists!")
		return
	}
	log.Println("File not found. Downloading...")
	if err := awslib.S3DownloadSecret(filename, sdkFilePath); err != nil {
		log.Printf("[S3] Error retrieving object: %s\n", err.Error())
		return
	}
	log.Println("File has been written")
}
