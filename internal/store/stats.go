package store

import (
	"context"
	"database/sql"
)

type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalContacts   int            `json:"total_contacts"`
	UniqueCompanies int            `json:"unique_companies"`
	UniqueLocations int            `json:"unique_locations"`
	FirstContact    *string        `json:"first_contact"`
	LastContact     *string        `json:"last_contact"`
	TopCompanies    []CompanyCount `json:"top_companies"`
	RecentActivity  []DayCount     `json:"recent_activity"`
}

// GetStats builds the aggregate view: totals, top companies by contact
// count, and webhook volume per day over the last week.
func GetStats(ctx context.Context, db *sql.DB) (Stats, error) {
	s := Stats{
		TopCompanies:   make([]CompanyCount, 0, 10),
		RecentActivity: make([]DayCount, 0, 7),
	}

	var first, last sql.NullString
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(DISTINCT company),
       COUNT(DISTINCT location),
       MIN(created_at),
       MAX(created_at)
FROM contacts;`).Scan(&s.TotalContacts, &s.UniqueCompanies, &s.UniqueLocations, &first, &last)
	if err != nil {
		return s, err
	}
	if first.Valid {
		s.FirstContact = &first.String
	}
	if last.Valid {
		s.LastContact = &last.String
	}

	rows, err := db.QueryContext(ctx, `
SELECT company, COUNT(*) AS n
FROM contacts
WHERE company != ''
GROUP BY company
ORDER BY n DESC, company ASC
LIMIT 10;`)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc CompanyCount
		if err := rows.Scan(&cc.Company, &cc.Count); err != nil {
			return s, err
		}
		s.TopCompanies = append(s.TopCompanies, cc)
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	actRows, err := db.QueryContext(ctx, `
SELECT DATE(received_at) AS day, COUNT(*) AS n
FROM webhook_logs
WHERE received_at >= datetime('now', '-7 days')
GROUP BY DATE(received_at)
ORDER BY day DESC;`)
	if err != nil {
		return s, err
	}
	defer actRows.Close()
	for actRows.Next() {
		var dc DayCount
		if err := actRows.Scan(&dc.Date, &dc.Count); err != nil {
			return s, err
		}
		s.RecentActivity = append(s.RecentActivity, dc)
	}
	return s, actRows.Err()
}
