// Package user implements account management for the CMS: login and logout
// against bcrypt-hashed credentials, self-service registration, public
// profile pages, and the sign-in box decorating every page.
//
// Accounts persist through the Store interface; in-memory and Postgres
// implementations ship with the package. Session binding happens through the
// middleware session handle, so the module itself never touches cookies.
package user
