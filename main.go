package main

import (
	"log"
	"os"
	"time"

	"github.com/gbl08ma/keybox"
	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/cphtransit/disruptionscph/pipeline"
)

var (
	rdb           *sqlx.DB
	rootSqalxNode sqalx.Node
	secrets       *keybox.Keybox
	settings      *Settings
	mainLog       = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	pipelineLog   = log.New(os.Stdout, "pipeline", log.Ldate|log.Ltime)

	// GitCommit is provided by govvv at compile-time
	GitCommit = "???"
	// BuildDate is provided by govvv at compile-time
	BuildDate = "???"
)

func main() {
	var err error
	mainLog.Println("Status pipeline starting, opening keybox...")
	secrets, err = keybox.Open(SecretsPath)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Keybox opened")

	settings, err = loadSettings(SettingsPath)
	if err != nil {
		mainLog.Fatalln(err)
	}

	mainLog.Println("Opening database...")
	databaseURI, present := secrets.Get("databaseURI")
	if !present {
		mainLog.Fatalln("Database connection string not present in keybox")
	}
	rdb, err = sqlx.Open("postgres", databaseURI)
	if err != nil {
		mainLog.Fatalln(err)
	}
	defer rdb.Close()

	err = rdb.Ping()
	if err != nil {
		mainLog.Fatalln(err)
	}
	rdb.SetMaxOpenConns(MaxDBconnectionPoolSize)

	rootSqalxNode, err = sqalx.New(rdb)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Database opened")

	pipeline.Initialize(rootSqalxNode, pipelineLog)
	snapshots := pipeline.NewSnapshotSource(rootSqalxNode, settings.SnapshotTTL())

	go StatsSender()

	for {
		runOnce(snapshots)
		time.Sleep(settings.RunInterval())
	}
}

func runOnce(snapshots *pipeline.SnapshotSource) {
	start := time.Now()

	snapshot, err := snapshots.Snapshot()
	if err != nil {
		mainLog.Println(err)
		return
	}

	result, err := pipeline.Run(snapshot, settings.Cadence(), settings.SummaryWindowDays)
	if err != nil {
		mainLog.Println(err)
		return
	}

	mainLog.Println("Pipeline run finished:",
		len(result.Events), "timeline rows,",
		len(result.Impacts), "station impact rows in", time.Since(start))
	if result.Unmapped.HasUnmapped() {
		mainLog.Println("Warning:", result.Unmapped.String())
	}
	if DEBUG {
		for _, summary := range result.Summary {
			mainLog.Println(summary)
		}
	}

	select {
	case runTelemetry <- newRunStats(result, time.Since(start)):
	default:
	}
}
