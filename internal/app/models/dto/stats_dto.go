package dto

// StatsBucket is one count row in the admin stats response
type StatsBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// StatsResponse aggregates catalog counts for the admin dashboard
type StatsResponse struct {
	TotalQuestions int64         `json:"totalQuestions"`
	TotalCourses   int64         `json:"totalCourses"`
	TotalPapers    int64         `json:"totalPapers"`
	TotalUsers     int64         `json:"totalUsers"`
	ByCourse       []StatsBucket `json:"byCourse"`
	ByBloomLevel   []StatsBucket `json:"byBloomLevel"`
	ByReviewStatus []StatsBucket `json:"byReviewStatus"`
}
