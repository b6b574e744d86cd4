package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/blobsync"
	"github.com/bobuk/yewcal/internal/config"
)

func (a *app) blobStore(ctx context.Context) (blobsync.Store, error) {
	s := a.settings
	return blobsync.NewS3(ctx, blobsync.S3Config{
		Bucket:          s.Bucket,
		Region:          s.AWSRegion,
		AccessKeyID:     s.AWSAccessKeyID,
		SecretAccessKey: s.AWSSecretAccessKey,
		Endpoint:        s.S3Endpoint,
	})
}

func (a *app) remoteKey() string {
	return blobsync.RemoteKey(a.user, config.EventsFilename)
}

func newPushEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push-events",
		Short: "Push event data to remote storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.blobStore(cmd.Context())
			if err != nil {
				return err
			}
			a.printVerbosely(1, "🚀 Pushing %s to %s/%s\n", a.paths.Events, a.settings.Bucket, a.remoteKey())
			if err := blobsync.Push(cmd.Context(), store, a.paths.Events, a.remoteKey()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Events pushed")
			return nil
		},
	}
}

func newPullEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull-events",
		Short: "Pull event data from remote storage, overwriting local data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.blobStore(cmd.Context())
			if err != nil {
				return err
			}
			res, err := blobsync.Pull(cmd.Context(), store, a.remoteKey(), a.paths.Events)
			if errors.Is(err, blobsync.ErrRemoteOlder) {
				return fmt.Errorf("remote data (%s) is older than local data (%s), not pulling: %w",
					res.Remote.Format("2006-01-02 15:04:05"), res.Local.Format("2006-01-02 15:04:05"), err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Event data pulled")
			return nil
		},
	}
}
