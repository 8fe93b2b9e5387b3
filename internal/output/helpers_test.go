package output

import (
	"time"

	"github.com/dshills/pmdreview/internal/review"
)

func sampleReport() *review.Report {
	files := []review.FileResult{
		{
			Path:   "src/main/java/App.java",
			Status: review.StatusProcessed,
			Comments: []review.Comment{
				{
					Path: "src/main/java/App.java", FirstLine: 4, NumLines: 3,
					Text:   "UnusedLocalVariable: Avoid unused local variables such as 'x'.\n\nMore info: https://pmd.example/unusedlocalvariable",
					Format: review.Plain, Rule: "UnusedLocalVariable", Priority: 3,
					URL: "https://pmd.example/unusedlocalvariable",
				},
				{
					Path: "src/main/java/App.java", FirstLine: 12, NumLines: 1,
					Text:   "EmptyCatchBlock: Avoid empty catch blocks\n\nMore info: https://pmd.example/emptycatchblock",
					Issue:  true,
					Format: review.Plain, Rule: "EmptyCatchBlock", Priority: 1,
					URL: "https://pmd.example/emptycatchblock",
				},
			},
		},
		{
			Path:   "src/main/java/Util.java",
			Status: review.StatusProcessed,
			Comments: []review.Comment{
				{
					Path: "src/main/java/Util.java", FirstLine: 7, NumLines: 1,
					Text:   "UnusedLocalVariable: Avoid unused local variables such as 'y'.\n\nMore info: https://pmd.example/unusedlocalvariable",
					Format: review.Plain, Rule: "UnusedLocalVariable", Priority: 3,
					URL: "https://pmd.example/unusedlocalvariable",
				},
			},
		},
		{Path: "README.md", Status: review.StatusIgnored, Reason: review.ErrUnsupported.Error(), Comments: []review.Comment{}},
		{Path: "src/Broken.java", Status: review.StatusIgnored, Reason: "PMD run failed (exit 1)", Comments: []review.Comment{}},
	}
	return review.NewReport("1.0", review.RepoInfo{Root: "/tmp/repo", Branch: "main"},
		review.InputInfo{Mode: "staged", Rulesets: []string{"java-basic"}}, files, time.Now())
}

func emptyReport() *review.Report {
	return review.NewReport("1.0", review.RepoInfo{Root: "/tmp/repo", Branch: "main"},
		review.InputInfo{Mode: "unstaged"}, nil, time.Now())
}
