package model

import (
	"time"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Book struct {
	ID              int    `json:"-" db:"id"`
	BookUid         string `json:"bookUid" db:"book_uid"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	ISBN            string `json:"isbn" db:"isbn"`
	Category        string `json:"category,omitempty" db:"category"`
	CopiesTotal     int    `json:"copiesTotal" db:"copies_total"`
	CopiesAvailable int    `json:"copiesAvailable" db:"copies_available"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Loan struct {
	ID       int       `json:"-" db:"id"`
	LoanUid  string    `json:"loanUid" db:"loan_uid"`
	Username string    `json:"username" db:"username"`
	BookUid  string    `json:"bookUid" db:"book_uid"`
	LoanDate time.Time `json:"loanDate" db:"loan_date"`
	DueDate  time.Time `json:"dueDate" db:"due_date"`
	Returned bool      `json:"returned" db:"returned"`
}

type ListLoans struct {
	Paging `json:",inline"`
	Items  []Loan `json:"items"`
}

// LoanHistory is the immutable archive copy of a closed loan.
type LoanHistory struct {
	ID         int       `json:"-" db:"id"`
	LoanUid    string    `json:"loanUid" db:"loan_uid"`
	Username   string    `json:"username" db:"username"`
	BookUid    string    `json:"bookUid" db:"book_uid"`
	LoanDate   time.Time `json:"loanDate" db:"loan_date"`
	DueDate    time.Time `json:"dueDate" db:"due_date"`
	ReturnDate time.Time `json:"returnDate" db:"return_date"`
	Returned   bool      `json:"returned" db:"returned"`
}

type ListLoanHistory struct {
	Paging `json:",inline"`
	Items  []LoanHistory `json:"items"`
}

type Reservation struct {
	ID              int       `json:"-" db:"id"`
	ReservationUid  string    `json:"reservationUid" db:"reservation_uid"`
	Username        string    `json:"username" db:"username"`
	BookUid         string    `json:"bookUid" db:"book_uid"`
	ReservationDate time.Time `json:"reservationDate" db:"reservation_date"`
	Active          bool      `json:"active" db:"active"`
}

type Fine struct {
	ID          int       `json:"-" db:"id"`
	FineUid     string    `json:"fineUid" db:"fine_uid"`
	Username    string    `json:"username" db:"username"`
	LoanUid     string    `json:"loanUid" db:"loan_uid"`
	Amount      float64   `json:"amount" db:"amount"`
	Description string    `json:"description" db:"description"`
	Paid        bool      `json:"paid" db:"paid"`
	FineDate    time.Time `json:"fineDate" db:"fine_date"`
}

type ListFines struct {
	Paging `json:",inline"`
	Items  []Fine `json:"items"`
}

type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type User struct {
	ID       int    `json:"-" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
}

type UserCreateRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN LIBRARIAN READER"`
}

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type BookCreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	ISBN        string `json:"isbn" validate:"required"`
	Category    string `json:"category"`
	CopiesTotal int    `json:"copiesTotal" validate:"required,gt=0"`
}

type BookUpdateRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Category string `json:"category"`
}

type CreateLoanRequest struct {
	BookUid string `json:"bookUid" validate:"required,uuid"`
}

type ReturnLoanResponse struct {
	Loan LoanHistory `json:"loan"`
	Fine *Fine       `json:"fine,omitempty"`
}

type CreateReservationRequest struct {
	BookUid string `json:"bookUid" validate:"required,uuid"`
}

type CreateFineRequest struct {
	Username    string  `json:"username" validate:"required"`
	LoanUid     string  `json:"loanUid" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

type AvailabilityResponse struct {
	BookUid         string `json:"bookUid"`
	CopiesAvailable int    `json:"copiesAvailable"`
}

type LateFeeResponse struct {
	LoanUid string  `json:"loanUid"`
	LateFee float64 `json:"lateFee"`
}

type CategoryCreateRequest struct {
	Name string `json:"name" validate:"required"`
}
