package model

// Cluster is a cinema cluster: a managerial grouping of one or more
// theatres sharing a manager, staff and ticket prices.  It corresponds to a
// row in `cinema_clusters`.  ManagerName, ManagerPhone and StaffCount are
// filled by list queries only.
type Cluster struct {
    ID           uint64  `json:"id"`
    Name         string  `json:"name"`
    Description  string  `json:"description"`
    ManagerID    *uint64 `json:"manager_id"`
    ManagerName  string  `json:"manager_name,omitempty"`
    ManagerPhone string  `json:"manager_phone,omitempty"`
    Phone        string  `json:"phone"`
    Email        string  `json:"email"`
    ProvinceCode string  `json:"province_code"`
    DistrictCode string  `json:"district_code"`
    Address      string  `json:"address"`
    Rooms        int     `json:"rooms"`
    StaffCount   int     `json:"staff_count"`
}

// BusinessPlan is a cluster's screening plan: the movies it intends to run
// over an optional date window.
type BusinessPlan struct {
    ID          uint64      `json:"id"`
    CinemaID    uint64      `json:"cinema_id"`
    Description string      `json:"description"`
    StartDate   *string     `json:"start_date"`
    EndDate     *string     `json:"end_date"`
    CreatedBy   uint64      `json:"created_by"`
    CreatedAt   string      `json:"created_at"`
    Movies      []PlanMovie `json:"movies"`
}

type PlanMovie struct {
    MovieID uint64 `json:"movie_id"`
    Title   string `json:"title,omitempty"`
    Note    string `json:"note,omitempty"`
}
