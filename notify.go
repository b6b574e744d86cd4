package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/notify"
)

// mailer picks SMTP when a relay is configured and Mailgun otherwise.
func (a *app) mailer() notify.Mailer {
	s := a.settings
	if s.SMTPHost != "" {
		return &notify.SMTP{
			Host:     s.SMTPHost,
			Port:     s.SMTPPort,
			Username: s.SMTPUsername,
			Password: s.SMTPPassword,
			From:     s.MailFrom,
		}
	}
	return &notify.Mailgun{APIURL: s.MailgunAPIURL, APIKey: s.MailgunAPIKey, From: s.MailFrom}
}

func (a *app) notifier(channel string) *notify.Notifier {
	s := a.settings
	return &notify.Notifier{
		Mailer: a.mailer(),
		Chat:   &notify.Slack{APIURL: s.SlackAPIURL, Token: s.SlackToken},
		SMS: &notify.Twilio{
			APIURL:     s.TwilioAPIURL,
			AccountSID: s.TwilioAccountSID,
			AuthToken:  s.TwilioAuthToken,
			From:       s.TwilioOriginNumber,
		},
		Email:   s.MyEmailAddress,
		Mobile:  s.MyMobile,
		Channel: channel,
	}
}

func newNotifyTodayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-today",
		Short: "Mail today's events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			r, err := a.notifier(a.prefs.ChatChannel).NotifyToday(cmd.Context(), store.Entries(), a.env)
			if err != nil {
				return err
			}
			if !r.Delivered {
				fmt.Fprintf(a.out, "  ❗️ mail not accepted: %d %s\n", r.StatusCode, r.Body)
				return nil
			}
			fmt.Fprintf(a.out, "📧 %s\n", r)
			return nil
		},
	}
}

func newNotifySoonCmd(a *app) *cobra.Command {
	var (
		minutes int
		channel string
		sms     bool
	)
	cmd := &cobra.Command{
		Use:   "notify-soon",
		Short: "Send reminders for events starting soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("minutes") {
				minutes = a.prefs.ImpendingMinutes
			}
			if minutes < 0 {
				return fmt.Errorf("minutes must not be negative, got %d", minutes)
			}
			if !cmd.Flags().Changed("channel") {
				channel = a.prefs.ChatChannel
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			results, err := a.notifier(channel).NotifyImpending(cmd.Context(), store.Entries(), a.env, minutes, sms)
			for _, r := range results {
				a.printVerbosely(2, "  🔔 %s\n", r)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d reminders sent\n", len(results))
			return nil
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 15, "look this many minutes ahead (default from impending_minutes)")
	cmd.Flags().StringVar(&channel, "channel", "#random", "chat channel (default from chat_channel)")
	cmd.Flags().BoolVar(&sms, "sms", false, "also send a text message")
	return cmd
}
