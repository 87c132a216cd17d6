package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed connections.sql
var connectionsSQL string

//go:embed jobs.sql
var jobsSQL string

// ChunksFunctions lists the SQL functions LoadChunksSql must create.
var ChunksFunctions = []string{
	"init_chunks",
	"select_source_chunks",
	"select_candidate_chunks",
	"select_chunks_by_similarity",
}

// DocumentsFunctions lists the SQL functions LoadDocumentsSql must create.
var DocumentsFunctions = []string{
	"select_document_title",
}

// ConnectionsFunctions lists the SQL functions LoadConnectionsSql must create.
var ConnectionsFunctions = []string{
	"upsert_connection",
}

// JobsFunctions lists the SQL functions LoadJobsSql must create.
var JobsFunctions = []string{
	"select_job",
	"update_job_progress",
	"update_job_heartbeat",
	"complete_job",
}

// Init initializes db extensions (pgvector) and base tables.
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadChunksSql loads chunk-related SQL functions.
func LoadChunksSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ChunksFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing chunks functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(chunksSQL)
	if err != nil {
		return fmt.Errorf("error executing chunks SQL: %w", err)
	}

	exist, err := checkFunctions(db, ChunksFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL chunks functions loaded successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions.
func LoadDocumentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DocumentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing documents functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkFunctions(db, DocumentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL documents functions loaded successfully")
	return nil
}

// LoadConnectionsSql loads connection-related SQL functions.
func LoadConnectionsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ConnectionsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing connections functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(connectionsSQL)
	if err != nil {
		return fmt.Errorf("error executing connections SQL: %w", err)
	}

	exist, err := checkFunctions(db, ConnectionsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL connections functions loaded successfully")
	return nil
}

// LoadJobsSql loads job-related SQL functions.
func LoadJobsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, JobsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing jobs functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(jobsSQL)
	if err != nil {
		return fmt.Errorf("error executing jobs SQL: %w", err)
	}

	exist, err := checkFunctions(db, JobsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL jobs functions loaded successfully")
	return nil
}

// LoadAllSql loads every SQL function group.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadChunksSql(db, force); err != nil {
		return err
	}

	if err := LoadConnectionsSql(db, force); err != nil {
		return err
	}

	if err := LoadJobsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database.
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
