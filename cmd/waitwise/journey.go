package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/pkg/client"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

func decodeReport(content string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return decoded, nil
}

// journeyCmd walks one patient through registration, triage, clinic choice
// and booking, then follows the appointment to the end
func journeyCmd(opts *rootOptions) *cobra.Command {
	var input services.RegisterInput
	var symptoms string
	var lat, lon float64
	var noTrack bool

	cmd := &cobra.Command{
		Use:   "journey",
		Short: "Register, triage, book the shortest wait and track it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			api := opts.client()
			session := client.NewSession(api)

			user, err := session.Register(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Registered %s (%s)\n", user.Name, user.ID)

			assessment, err := session.Triage(ctx, symptoms)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Urgency: %s\n", assessment.Urgency)

			var origin *geo.Point
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				origin = &geo.Point{Latitude: lat, Longitude: lon}
			}
			clinics, err := api.ListClinics(ctx, services.SortByWait, origin)
			if err != nil {
				return err
			}
			if len(clinics) == 0 {
				return fmt.Errorf("no clinics available")
			}
			chosen := clinics[0]
			fmt.Fprintf(out, "Booking %s (current wait %d min)\n", chosen.Name, chosen.CurrentWait)

			booked, err := session.Book(ctx, chosen.ID, &symptoms)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Appointment %s at position %d\n", booked.AppointmentID, booked.Position)

			if noTrack {
				return nil
			}
			return follow(cmd, session, opts.pollInterval)
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number for SMS alerts")
	cmd.Flags().StringVar(&input.IDType, "id-type", "Healthcard", "identity document (Healthcard or GovID)")
	cmd.Flags().StringVar(&symptoms, "symptoms", "", "free-text symptoms")
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "origin longitude")
	cmd.Flags().BoolVar(&noTrack, "no-track", false, "stop after booking")
	return cmd
}
