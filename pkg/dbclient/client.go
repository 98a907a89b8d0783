package dbclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type ClientType string

const (
	None  ClientType = "None"
	Kusto ClientType = "Kusto"
)

// DbClient interface for storing coverage run data.
type DbClient interface {
	Store(context context.Context, data *Data) error
}

// Data is one coverage analysis run as sent to the database.
type Data struct {
	PreciseTimestamp time.Time `json:"preciseTimestamp"` // time send to db
	LineCoverage     float64   `json:"lineCoverage"`     // executed line percentage
	BranchCoverage   float64   `json:"branchCoverage"`   // covered branch arc percentage
	FunctionCoverage float64   `json:"functionCoverage"` // functions with an executed declaration line
	OverallScore     float64   `json:"overallScore"`     // composite quality score
	CriticalGaps     int64     `json:"criticalGaps"`     // critical severity gap count
	TotalGaps        int64     `json:"totalGaps"`        // all gap count
	TestCount        int64     `json:"testCount"`        // tests found by the probe
	Status           string    `json:"status"`           // run verdict: success/warning/failure/error
	ModulePath       string    `json:"modulePath"`       // module name, which is declared in go.mod
	CommitHash       string    `json:"commitHash"`       // git commit the run measured
	BranchName       string    `json:"branchName"`       // git branch the run measured

	Extra map[string]interface{} // extra data that passing accordingly
}

var ErrUnsupportedDBType = errors.New(`supported type are "Kusto", unsupported DB client type`)

type DBOption struct {
	DataCollectionEnabled bool
	DbType                ClientType
	KustoOption           KustoOption
}

func (o *DBOption) Validate() error {
	if !o.DataCollectionEnabled {
		return nil
	}

	if o.DbType == Kusto {
		return o.KustoOption.Validate()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedDBType, o.DbType)
}

func (o *DBOption) GetDbClient(logger logrus.FieldLogger) (DbClient, error) {
	switch o.DbType {
	case Kusto:
		o.KustoOption.Logger = logger
		return NewKustoClient(&o.KustoOption)
	default:
		return nil, nil
	}
}
