// connectorctl is a small demonstration binary: it prepares a statement
// against an in-process DuckDB database, feeds its parameters through
// the same byte-oriented Write path a remote caller would use, executes
// it, and drains the result set through resultset.Producer, printing the
// raw wire bytes it produced.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ansilo-data/connector-core/descriptor"
	"github.com/ansilo-data/connector-core/driver/duckdbdrv"
	"github.com/ansilo-data/connector-core/internal/logging"
	"github.com/ansilo-data/connector-core/preparedquery"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

var (
	dataSource = ":memory:"
	query      = "select ? + 1 as n"
	logLevel   = int(logrus.InfoLevel)
)

func init() {
	flag.StringVar(&dataSource, "dsn", dataSource, "DuckDB data source (a file path, or :memory:).")
	flag.StringVar(&query, "query", query, "Query to prepare and run, with one ? placeholder.")
	flag.IntVar(&logLevel, "loglevel", logLevel, "The log level to use.")
}

func main() {
	flag.Parse()
	logging.Init(logrus.Level(logLevel))

	db, err := duckdbdrv.Open(dataSource)
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to open DuckDB")
	}
	defer db.Close()

	ctx := context.Background()
	handle, err := duckdbdrv.Prepare(ctx, db, query)
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to prepare statement")
	}
	defer handle.Close()

	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	pq, err := preparedquery.New(handle, duckdbdrv.Mapping{}, params)
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to build prepared query")
	}

	payload := append([]byte{0x01}, wire.EncodeInt32(41)...)
	if _, err := pq.Write(ctx, payload); err != nil {
		logrus.WithError(err).Fatalln("Failed to write parameter bytes")
	}

	producer, err := pq.ExecuteQuery(ctx)
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to execute query")
	}
	defer producer.Close()

	buf := make([]byte, 256)
	for {
		n, err := producer.Fill(ctx, buf)
		if err != nil {
			logrus.WithError(err).Fatalln("Failed to fill result set")
		}
		if n == 0 {
			break
		}
		fmt.Printf("% x\n", buf[:n])
	}

	logrus.WithField("params", pq.LoggedParamsJSON()).Info("done")
}
