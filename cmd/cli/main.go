package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/admincli"
	"github.com/dmitrijs2005/accountkeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("a", "localhost:50051", "account service gRPC address")
	token := flag.String("token", os.Getenv("ACCOUNTS_TOKEN"), "access token for administrative commands")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <command> [args]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), admincli.Usage)
	}
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app := admincli.NewApp(rpc.NewClient(conn), *token, os.Stdout)
	if err := app.Run(ctx, flag.Args()); err != nil {
		if errors.Is(err, admincli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			return 2
		}
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "%s: %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
