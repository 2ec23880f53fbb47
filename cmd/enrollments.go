package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var enrollmentStatuses = []string{api.EnrollmentActive, api.EnrollmentCompleted}

func enrollmentsTable(enrollments []api.Enrollment) *table.Table {
	return newTable("SUB-COURSE", "ID", "COURSE", "PROGRESS", "LAST LESSON", "CERTIFICATE").
		Rows(lo.Map(enrollments, func(e api.Enrollment, _ int) []string {
			last := ""
			if e.LastAccessedLesson != nil {
				last = fmt.Sprintf("%d %s", e.LastAccessedLesson.ID, e.LastAccessedLesson.Title)
			}
			cert := ""
			if e.Certificate != nil {
				cert = e.Certificate.Code
			}
			return []string{
				e.SubCourse.Title,
				fmt.Sprint(e.SubCourse.ID),
				e.MainCourse.Title,
				fmt.Sprintf("%d%% %s", e.ProgressPercentage, e.Status),
				last,
				cert,
			}
		})...)
}

func init() {
	rootCmd.AddCommand(enrollmentsCmd)
	enrollmentsCmd.Flags().BoolP("json", "j", false, "Print the enrollments as JSON")
	enrollmentsCmd.Flags().String("status", "", "Only show enrollments with this status (active, completed)")
	lo.Must0(enrollmentsCmd.RegisterFlagCompletionFunc("status", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return enrollmentStatuses, cobra.ShellCompDirectiveNoFileComp
	}))
}

var enrollmentsCmd = &cobra.Command{
	Use:     "enrollments",
	Aliases: []string{"my"},
	Short:   "List the sub-courses you are enrolled in and your progress",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status := lo.Must(cmd.Flags().GetString("status"))
		if status != "" && !lo.Contains(enrollmentStatuses, status) {
			handleErr(fmt.Errorf("unknown status %q, expected one of %v", status, enrollmentStatuses))
		}

		enrollments, err := api.FromConfig().GetEnrollments(commandContext(cmd), requireToken(), status)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(os.Stdout).Encode(enrollments))
			return
		}

		if len(enrollments) == 0 {
			fmt.Println(style.Faint("no enrollments"))
			return
		}
		fmt.Println(enrollmentsTable(enrollments))
	},
}
