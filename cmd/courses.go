package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/auth"
	"github.com/coursecast/coursecast/style"
	"github.com/coursecast/coursecast/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func printMainCourses(w io.Writer, courses []api.MainCourse) {
	for _, c := range courses {
		_, _ = fmt.Fprintf(w, "%s %s %s\n",
			style.Bold(c.Title),
			style.Faint("("+c.Slug+")"),
			style.Faint(util.Quantify(c.SubCoursesCount, "sub-course", "sub-courses")),
		)
	}
}

func subCoursesTable(subs []api.SubCourse) *table.Table {
	return newTable("ID", "SUB-COURSE", "LEVEL", "HOURS", "ENROLLED").
		Rows(lo.Map(subs, func(s api.SubCourse, _ int) []string {
			enrolled := ""
			if s.Enrollment != nil {
				enrolled = fmt.Sprintf("%d%%", s.Enrollment.ProgressPercentage)
			} else if s.IsEnrolled != nil && *s.IsEnrolled {
				enrolled = "yes"
			}
			return []string{
				fmt.Sprint(s.ID),
				s.Title,
				s.Level,
				fmt.Sprintf("%g", s.DurationHours),
				enrolled,
			}
		})...)
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.Flags().BoolP("json", "j", false, "Print the courses as JSON")
	coursesCmd.Flags().StringP("search", "s", "", "Only list courses the backend matches to the query")
}

var coursesCmd = &cobra.Command{
	Use:   "courses [slug]",
	Short: "Browse the course catalog, or the sub-courses of one course",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := api.FromConfig()
		asJSON := lo.Must(cmd.Flags().GetBool("json"))

		if len(args) == 0 {
			courses, err := client.GetMainCourses(commandContext(cmd), lo.Must(cmd.Flags().GetString("search")))
			handleErr(err)

			if asJSON {
				handleErr(json.NewEncoder(os.Stdout).Encode(courses))
				return
			}
			if len(courses) == 0 {
				fmt.Println(style.Faint("no courses"))
				return
			}
			printMainCourses(os.Stdout, courses)
			return
		}

		detail, err := client.GetMainCourse(commandContext(cmd), args[0])
		handleErr(err)

		// Enrollment columns are only filled in for a signed-in viewer.
		if token, _ := auth.GetToken(); token != "" {
			for i, s := range detail.SubCourses {
				if full, err := client.GetSubCourse(commandContext(cmd), s.ID, token); err == nil {
					detail.SubCourses[i] = *full
				}
			}
		}

		if asJSON {
			handleErr(json.NewEncoder(os.Stdout).Encode(detail))
			return
		}

		fmt.Println(style.Title(detail.Title))
		if detail.Description != "" {
			fmt.Println(detail.Description)
		}
		if len(detail.SubCourses) == 0 {
			fmt.Println(style.Faint("no sub-courses"))
			return
		}
		fmt.Println(subCoursesTable(detail.SubCourses))
	},
}
