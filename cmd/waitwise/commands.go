package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
	"github.com/zatekoja/waitwise/backend/pkg/client"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

type rootOptions struct {
	server       string
	pollInterval time.Duration
}

func (o *rootOptions) client() *client.HTTPClient {
	return client.NewClient(o.server)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaultServer := os.Getenv("WAITWISE_API_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	rootCmd := &cobra.Command{
		Use:           "waitwise",
		Short:         "Join and follow walk-in clinic queues",
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "WaitWise API base URL")
	rootCmd.PersistentFlags().DurationVar(&opts.pollInterval, "poll", 5*time.Second, "tracking poll interval")

	rootCmd.AddCommand(
		registerCmd(opts),
		triageCmd(opts),
		clinicsCmd(opts),
		clinicCmd(opts),
		bookCmd(opts),
		statusCmd(opts),
		trackCmd(opts),
		cancelCmd(opts),
		reportCmd(opts),
		staffCmd(opts),
		journeyCmd(opts),
	)
	return rootCmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func registerCmd(opts *rootOptions) *cobra.Command {
	var input services.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client().Register(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number for SMS alerts")
	cmd.Flags().StringVar(&input.IDType, "id-type", "Healthcard", "identity document (Healthcard or GovID)")
	return cmd
}

func triageCmd(opts *rootOptions) *cobra.Command {
	var userID, symptoms string

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Assess symptoms",
		RunE: func(cmd *cobra.Command, args []string) error {
			assessment, err := opts.client().Triage(cmd.Context(), userID, symptoms)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assessment)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "patient ID to record the result on")
	cmd.Flags().StringVar(&symptoms, "symptoms", "", "free-text symptoms")
	return cmd
}

func clinicsCmd(opts *rootOptions) *cobra.Command {
	var sort string
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "clinics",
		Short: "List clinics by wait or distance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var origin *geo.Point
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return fmt.Errorf("--lat and --lon must be given together")
			}
			if latSet {
				origin = &geo.Point{Latitude: lat, Longitude: lon}
			}

			clinics, err := opts.client().ListClinics(cmd.Context(), services.SortCriterion(sort), origin)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), clinics)
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "wait or distance")
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "origin longitude")
	return cmd
}

func clinicCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clinic <clinic-id>",
		Short: "Show one clinic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clinic, err := opts.client().GetClinic(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), clinic)
		},
	}
}

func bookCmd(opts *rootOptions) *cobra.Command {
	var input services.BookInput
	var symptoms string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Join a clinic queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("symptoms") {
				input.Symptoms = &symptoms
			}
			result, err := opts.client().Book(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&input.UserID, "user", "", "patient ID")
	cmd.Flags().StringVar(&input.ClinicID, "clinic", "", "clinic ID")
	cmd.Flags().StringVar(&symptoms, "symptoms", "", "symptoms to share with the clinic")
	return cmd
}

func statusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <appointment-id>",
		Short: "Show an appointment and its estimated wait",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.client().GetAppointment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

func trackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "track <appointment-id>",
		Short: "Follow an appointment until it is completed or cancelled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := client.NewSession(opts.client())
			session.AppointmentID = args[0]
			return follow(cmd, session, opts.pollInterval)
		},
	}
}

func follow(cmd *cobra.Command, session *client.Session, interval time.Duration) error {
	updates, err := session.Track(cmd.Context(), tracking.Config{Interval: interval}, zerolog.Nop())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for update := range updates {
		fmt.Fprintln(out, describe(update))
	}
	return nil
}

func describe(u tracking.Update) string {
	switch u.Kind {
	case tracking.KindSnapshot:
		return fmt.Sprintf("%s: %s at position %d (about %d min)", u.AppointmentID, u.Status, u.Position, u.EstimatedWaitMinutes)
	case tracking.KindGetReady:
		return fmt.Sprintf("Get ready: you are number %d in line", u.Position)
	case tracking.KindPositionChanged:
		return fmt.Sprintf("Position %d -> %d (about %d min)", u.PreviousPosition, u.Position, u.EstimatedWaitMinutes)
	case tracking.KindStatusChanged:
		return fmt.Sprintf("Status %s -> %s", u.PreviousStatus, u.Status)
	case tracking.KindCompleted:
		return "Visit completed"
	case tracking.KindCancelled:
		return "Appointment cancelled"
	}
	return string(u.Kind)
}

func cancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Leave the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		},
	}
}

func reportCmd(opts *rootOptions) *cobra.Command {
	var notes, output string

	cmd := &cobra.Command{
		Use:   "report <appointment-id>",
		Short: "Request the visit summary of a confirmed appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			report, err := opts.client().Report(cmd.Context(), args[0], notesPtr)
			if err != nil {
				return err
			}
			if output == "" {
				return printJSON(cmd.OutOrStdout(), report)
			}
			content, err := decodeReport(report.PDFBase64)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, content, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "clinician notes")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the decoded summary PDF to this file")
	return cmd
}

func staffCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Clinic staff operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "queue <clinic-id>",
			Short: "List queued appointments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				queue, err := opts.client().ClinicQueue(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), queue)
			},
		},
		&cobra.Command{
			Use:   "notify-next <clinic-id>",
			Short: "Call the next patient",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				result, err := opts.client().NotifyNext(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			},
		},
		&cobra.Command{
			Use:   "confirm <appointment-id>",
			Short: "Check a notified patient in",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client().Confirm(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "confirmed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "complete <appointment-id>",
			Short: "Close a visit",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client().Complete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "completed")
				return nil
			},
		},
	)
	return cmd
}
