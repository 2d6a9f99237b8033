package services

// Services defined in this package:
// - AuthService: login, registration, refresh rotation and profile
// - CourseService: catalog CRUD with cache-aside reads
// - QuestionService: search, practice sampling, curation and review
// - StudentService: course selection and bookmarks
// - PaperService: paper upload, listing and extraction summaries
// - UserService: admin account management
// - StatsService: dashboard counters
